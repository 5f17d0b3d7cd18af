package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kututorium/adminserve/internal/observability"
)

func TestSnapshotTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	metrics := &observability.MockMetricsRegistry{}
	s := newSnapshot[int]("n", 10*time.Second, func() time.Time { return now }, metrics)

	calls := 0
	fetch := func(context.Context) (int, error) { calls++; return calls, nil }

	v, err := s.load(context.Background(), fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	now = now.Add(9 * time.Second)
	v, _ = s.load(context.Background(), fetch)
	assert.Equal(t, 1, v)

	now = now.Add(time.Second)
	v, _ = s.load(context.Background(), fetch)
	assert.Equal(t, 2, v)

	assert.Equal(t, 2, metrics.Count("snapshot_events", "n", "miss"))
	assert.Equal(t, 1, metrics.Count("snapshot_events", "n", "hit"))
}

func TestSnapshotDiscardsStaleFetch(t *testing.T) {
	metrics := &observability.MockMetricsRegistry{}
	s := newSnapshot[string]("n", time.Minute, time.Now, metrics)

	v, err := s.load(context.Background(), func(context.Context) (string, error) {
		// a mutation lands while this fetch is in flight
		s.invalidate()
		return "old", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "old", v, "caller still gets its result")
	assert.Equal(t, 1, metrics.Count("snapshot_events", "n", "stale"))

	v, _ = s.load(context.Background(), func(context.Context) (string, error) { return "new", nil })
	assert.Equal(t, "new", v, "stale result was not stored")
	assert.Equal(t, uint64(1), s.generation())
}

func TestSnapshotErrorNotCached(t *testing.T) {
	s := newSnapshot[int]("n", time.Minute, time.Now, observability.NewNoOpRegistry())
	_, err := s.load(context.Background(), func(context.Context) (int, error) { return 0, errors.New("down") })
	assert.EqualError(t, err, "down")

	v, err := s.load(context.Background(), func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestServiceStaleReportsAfterDecision(t *testing.T) {
	b := sampleBackend()
	svc, _, _ := newTestService(t, b)
	ctx := context.Background()

	b.onListReports = func() {
		b.onListReports = nil
		_, err := svc.Decide(ctx, "tok", 1, Reject, "spam")
		require.NoError(t, err)
	}
	_, err := svc.Reports(ctx, "tok")
	require.NoError(t, err)

	reports, err := svc.Reports(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 2, b.reportLists)
	assert.Equal(t, "rejected", reports[0].Status)
}
