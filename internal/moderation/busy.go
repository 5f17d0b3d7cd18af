package moderation

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/db"
	"github.com/kututorium/adminserve/internal/models"
)

// SubjectKey names the busy slot of a learner or teacher profile.
func SubjectKey(role models.Role, subjectID int64) string {
	return string(role) + ":" + strconv.FormatInt(subjectID, 10)
}

// ReportKey names the busy slot of a report.
func ReportKey(reportID int64) string {
	return "report:" + strconv.FormatInt(reportID, 10)
}

// BusyGuard tracks which subjects have a mutation in flight. Acquire never
// waits: it fails with ErrBusy when the key is taken.
type BusyGuard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
	Held(ctx context.Context, key string) bool
}

// MemoryGuard is a BusyGuard for a single instance.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryGuard returns an empty in-process guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return nil, ErrBusy
	}
	g.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

func (g *MemoryGuard) Held(_ context.Context, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}

// RedisGuard shares busy slots between instances through redis locks. A lock
// outlives a crashed holder by at most ttl.
type RedisGuard struct {
	store  *db.RedisStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisGuard creates a guard backed by store.
func NewRedisGuard(store *db.RedisStore, ttl time.Duration, logger *zap.Logger) *RedisGuard {
	return &RedisGuard{store: store, ttl: ttl, logger: logger}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	token, ok, err := g.store.TryLock(ctx, key, g.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBusy
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be done
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := g.store.Unlock(ctx, key, token); err != nil {
				g.logger.Warn("failed to release busy lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}

func (g *RedisGuard) Held(ctx context.Context, key string) bool {
	locked, err := g.store.Locked(ctx, key)
	if err != nil {
		g.logger.Warn("busy lookup failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return locked
}
