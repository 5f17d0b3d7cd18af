package moderation

import (
	"context"
	"sync"
	"time"

	"github.com/kututorium/adminserve/internal/observability"
)

// snapshot caches one backend collection for a short ttl. Every invalidation
// bumps gen; a fetch that started under an older gen is handed to its caller
// but never stored, so it cannot overwrite the result of a later mutation.
type snapshot[T any] struct {
	name    string
	ttl     time.Duration
	now     func() time.Time
	metrics observability.MetricsRegistry

	mu        sync.Mutex
	value     T
	valid     bool
	fetchedAt time.Time
	gen       uint64
}

func newSnapshot[T any](name string, ttl time.Duration, now func() time.Time, metrics observability.MetricsRegistry) *snapshot[T] {
	return &snapshot[T]{name: name, ttl: ttl, now: now, metrics: metrics}
}

func (s *snapshot[T]) load(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	s.mu.Lock()
	if s.valid && s.now().Sub(s.fetchedAt) < s.ttl {
		v := s.value
		s.mu.Unlock()
		s.metrics.IncrementSnapshotEvents(s.name, "hit")
		return v, nil
	}
	gen := s.gen
	s.mu.Unlock()
	s.metrics.IncrementSnapshotEvents(s.name, "miss")

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.metrics.IncrementSnapshotEvents(s.name, "stale")
		return v, nil
	}
	s.value, s.valid, s.fetchedAt = v, true, s.now()
	return v, nil
}

func (s *snapshot[T]) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.gen++
	s.value, s.valid = zero, false
	s.metrics.IncrementSnapshotEvents(s.name, "invalidate")
}

func (s *snapshot[T]) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}
