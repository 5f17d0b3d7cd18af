package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/observability"
)

// KeyedLimiter rate limits an operation per key, typically a client IP.
//
// Each key gets its own token bucket, created lazily on first access.
// Activity is reported to the injected metrics registry under Scope.
//
// Example usage:
//
//	limiter := NewKeyedLimiter("login", Config{Capacity: 5, Refill: 1, Per: time.Minute, Enabled: true}, metrics)
//	if !limiter.Allow(clientIP) {
//	    // reject with 429
//	}
type KeyedLimiter struct {
	scope   string
	buckets map[string]*TokenBucket       // Map of key to token bucket
	mu      sync.RWMutex                  // Protects the buckets map
	config  Config                        // Rate limiting configuration
	metrics observability.MetricsRegistry // Metrics registry for tracking rate limiting activity
}

// Config holds the configuration for rate limiting.
type Config struct {
	Capacity int           // Token bucket capacity (burst allowance)
	Refill   int           // Tokens added every Per (sustained rate)
	Per      time.Duration // Refill period
	Enabled  bool          // Whether rate limiting is active
}

// NewKeyedLimiter creates a limiter reporting metrics under scope.
func NewKeyedLimiter(scope string, config Config, metrics observability.MetricsRegistry) *KeyedLimiter {
	return &KeyedLimiter{
		scope:   scope,
		buckets: make(map[string]*TokenBucket),
		config:  config,
		metrics: metrics,
	}
}

// Allow checks if a request for the given key should be allowed.
// If rate limiting is disabled via config, this method always returns true.
func (kl *KeyedLimiter) Allow(key string) bool {
	if !kl.config.Enabled {
		return true
	}

	kl.metrics.IncrementRateLimitRequests(kl.scope)

	// Get or create token bucket for this key
	kl.mu.RLock()
	bucket, exists := kl.buckets[key]
	kl.mu.RUnlock()

	if !exists {
		// Double-checked locking pattern to avoid race conditions
		kl.mu.Lock()
		bucket, exists = kl.buckets[key]
		if !exists {
			bucket = NewTokenBucket(kl.config.Capacity, kl.config.Refill, kl.config.Per)
			kl.buckets[key] = bucket
		}
		kl.mu.Unlock()
	}

	allowed := bucket.Allow()
	if !allowed {
		kl.metrics.IncrementRateLimitHits(kl.scope)
	}

	return allowed
}

// Prune drops buckets that have refilled completely; a fresh bucket behaves
// the same, so nothing is lost. Returns the number removed.
func (kl *KeyedLimiter) Prune() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	removed := 0
	for key, bucket := range kl.buckets {
		if bucket.Full() {
			delete(kl.buckets, key)
			removed++
		}
	}
	return removed
}

// Sweep logs every key that has been refused since its bucket was created,
// then prunes full buckets. Returns the number pruned.
func (kl *KeyedLimiter) Sweep(logger *zap.Logger) int {
	for _, st := range kl.GetStats() {
		if st.Hits == 0 {
			continue
		}
		logger.Warn("rate limit offender",
			zap.String("scope", kl.scope),
			zap.String("key", st.Key),
			zap.Int64("hits", st.Hits),
			zap.Int64("total", st.Total),
			zap.Float64("hit_rate", st.HitRate))
	}
	removed := kl.Prune()
	if removed > 0 {
		logger.Debug("pruned rate limit buckets", zap.String("scope", kl.scope), zap.Int("removed", removed))
	}
	return removed
}

// StartPruning sweeps every interval until stop is closed.
func (kl *KeyedLimiter) StartPruning(interval time.Duration, stop <-chan struct{}, logger *zap.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				kl.Sweep(logger)
			case <-stop:
				return
			}
		}
	}()
}

// GetStats returns rate limiting statistics for every tracked key.
func (kl *KeyedLimiter) GetStats() map[string]RateLimitStats {
	kl.mu.RLock()
	defer kl.mu.RUnlock()

	stats := make(map[string]RateLimitStats)
	for key, bucket := range kl.buckets {
		hits, total := bucket.Stats()
		hitRate := 0.0
		if total > 0 {
			hitRate = float64(hits) / float64(total)
		}
		stats[key] = RateLimitStats{
			Key:     key,
			Hits:    hits,
			Total:   total,
			HitRate: hitRate,
		}
	}

	return stats
}

// RateLimitStats contains statistics about rate limiting for a single key.
type RateLimitStats struct {
	Key     string  `json:"key"`
	Hits    int64   `json:"hits"`     // Number of rate limited requests
	Total   int64   `json:"total"`    // Total number of requests processed
	HitRate float64 `json:"hit_rate"` // Share of requests rate limited (0.0-1.0)
}

// String returns a human-readable representation of the rate limit statistics.
func (rls RateLimitStats) String() string {
	return fmt.Sprintf("%s: %d/%d hits (%.2f%%)",
		rls.Key, rls.Hits, rls.Total, rls.HitRate*100)
}
