package observability

import (
	"strings"
	"sync"
	"time"
)

// MockMetricsRegistry records counter increments so tests can assert on them.
// Latencies are ignored.
type MockMetricsRegistry struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *MockMetricsRegistry) inc(name string, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[key(name, labels)]++
}

// Count returns how many times the named counter was incremented with labels.
func (m *MockMetricsRegistry) Count(name string, labels ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key(name, labels)]
}

func key(name string, labels []string) string {
	return name + "{" + strings.Join(labels, ",") + "}"
}

// HTTP Request metrics
func (m *MockMetricsRegistry) IncrementRequests(endpoint, method, status string) {
	m.inc("requests", endpoint, method, status)
}
func (m *MockMetricsRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}

// Backend metrics
func (m *MockMetricsRegistry) IncrementBackendRequests(operation, outcome string) {
	m.inc("backend_requests", operation, outcome)
}
func (m *MockMetricsRegistry) RecordBackendLatency(operation string, duration time.Duration) {}

// Moderation metrics
func (m *MockMetricsRegistry) IncrementModerationActions(action, outcome string) {
	m.inc("moderation_actions", action, outcome)
}
func (m *MockMetricsRegistry) IncrementBusyRejections(kind string) { m.inc("busy_rejections", kind) }
func (m *MockMetricsRegistry) IncrementSnapshotEvents(collection, event string) {
	m.inc("snapshot_events", collection, event)
}

// Auth metrics
func (m *MockMetricsRegistry) IncrementLoginAttempts(outcome string) { m.inc("login_attempts", outcome) }

// Rate limiting metrics
func (m *MockMetricsRegistry) IncrementRateLimitRequests(scope string) {
	m.inc("ratelimit_requests", scope)
}
func (m *MockMetricsRegistry) IncrementRateLimitHits(scope string) { m.inc("ratelimit_hits", scope) }

// Export metrics
func (m *MockMetricsRegistry) IncrementExports(collection string) { m.inc("exports", collection) }
