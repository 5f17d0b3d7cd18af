package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics
// This replaces direct access to global Prometheus metrics with dependency injection
type MetricsRegistry interface {
	// HTTP Request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Backend metrics
	IncrementBackendRequests(operation, outcome string)
	RecordBackendLatency(operation string, duration time.Duration)

	// Moderation metrics
	IncrementModerationActions(action, outcome string)
	IncrementBusyRejections(kind string)
	IncrementSnapshotEvents(collection, event string)

	// Auth metrics
	IncrementLoginAttempts(outcome string)

	// Rate limiting metrics
	IncrementRateLimitRequests(scope string)
	IncrementRateLimitHits(scope string)

	// Export metrics
	IncrementExports(collection string)
}

// PrometheusRegistry implements MetricsRegistry using the existing global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

// HTTP Request metrics
func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// Backend metrics
func (r *PrometheusRegistry) IncrementBackendRequests(operation, outcome string) {
	BackendRequests.WithLabelValues(operation, outcome).Inc()
}

func (r *PrometheusRegistry) RecordBackendLatency(operation string, duration time.Duration) {
	BackendLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// Moderation metrics
func (r *PrometheusRegistry) IncrementModerationActions(action, outcome string) {
	ModerationActions.WithLabelValues(action, outcome).Inc()
}

func (r *PrometheusRegistry) IncrementBusyRejections(kind string) {
	BusyRejections.WithLabelValues(kind).Inc()
}

func (r *PrometheusRegistry) IncrementSnapshotEvents(collection, event string) {
	SnapshotEvents.WithLabelValues(collection, event).Inc()
}

// Auth metrics
func (r *PrometheusRegistry) IncrementLoginAttempts(outcome string) {
	LoginAttempts.WithLabelValues(outcome).Inc()
}

// Rate limiting metrics
func (r *PrometheusRegistry) IncrementRateLimitRequests(scope string) {
	RateLimitRequests.WithLabelValues(scope).Inc()
}

func (r *PrometheusRegistry) IncrementRateLimitHits(scope string) {
	RateLimitHits.WithLabelValues(scope).Inc()
}

// Export metrics
func (r *PrometheusRegistry) IncrementExports(collection string) {
	ExportCount.WithLabelValues(collection).Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementBackendRequests(operation, outcome string)                   {}
func (r *NoOpRegistry) RecordBackendLatency(operation string, duration time.Duration)        {}
func (r *NoOpRegistry) IncrementModerationActions(action, outcome string)                    {}
func (r *NoOpRegistry) IncrementBusyRejections(kind string)                                  {}
func (r *NoOpRegistry) IncrementSnapshotEvents(collection, event string)                     {}
func (r *NoOpRegistry) IncrementLoginAttempts(outcome string)                                {}
func (r *NoOpRegistry) IncrementRateLimitRequests(scope string)                              {}
func (r *NoOpRegistry) IncrementRateLimitHits(scope string)                                  {}
func (r *NoOpRegistry) IncrementExports(collection string)                                   {}
