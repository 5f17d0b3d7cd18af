// Package ratelimit implements token bucket rate limiting for login attempts.
//
// The token bucket algorithm allows bursts up to the bucket capacity while
// holding a sustained rate over time: a few mistyped passwords go through,
// a password-guessing loop does not.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements a thread-safe token bucket rate limiter.
//
// The bucket has a fixed capacity and gains refill tokens every period.
// Each request consumes one token. When the bucket is empty, requests are
// rejected until tokens refill.
//
// Example usage:
//
//	bucket := NewTokenBucket(5, 1, time.Minute) // 5 burst, 1 token per minute
//	if bucket.Allow() {
//	    // Process request
//	} else {
//	    // Rate limited - reject request
//	}
type TokenBucket struct {
	capacity   int           // Maximum number of tokens the bucket can hold
	tokens     int           // Current number of tokens in the bucket
	refill     int           // Number of tokens added per period
	period     time.Duration // Refill period
	lastRefill time.Time     // Last time tokens were added to the bucket
	mu         sync.Mutex    // Protects all bucket state
	hitCount   int64         // Number of requests that were rate limited
	totalCount int64         // Total number of requests processed
	now        func() time.Time
}

// NewTokenBucket creates a token bucket holding up to capacity tokens and
// gaining refill tokens every period. The bucket starts full.
func NewTokenBucket(capacity, refill int, period time.Duration) *TokenBucket {
	if period <= 0 {
		period = time.Second
	}
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refill:     refill,
		period:     period,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Allow attempts to consume one token from the bucket.
//
// Returns true if a token was available and consumed (request allowed).
// Returns false if no tokens are available (request should be rate limited).
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.totalCount++
	tb.refillLocked()

	// Try to consume a token
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	// No tokens available - rate limit hit
	tb.hitCount++
	return false
}

// Full reports whether the bucket has refilled to capacity.
func (tb *TokenBucket) Full() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refillLocked()
	return tb.tokens >= tb.capacity
}

func (tb *TokenBucket) refillLocked() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill)

	tokensToAdd := int(float64(elapsed) / float64(tb.period) * float64(tb.refill))
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}
}

// Stats returns the current rate limiting statistics.
//
// Returns:
//   - hits: Number of requests that were rate limited (blocked)
//   - total: Total number of requests processed by this bucket
func (tb *TokenBucket) Stats() (hits, total int64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.hitCount, tb.totalCount
}
