package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminserve_requests_total",
			Help: "Total HTTP requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adminserve_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// backend API calls labelled by operation and outcome
	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminserve_backend_requests_total",
			Help: "Total calls to the platform backend",
		},
		[]string{"operation", "outcome"},
	)

	// latency of backend API calls
	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adminserve_backend_duration_seconds",
			Help:    "Duration of platform backend calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// moderation actions (decide, ban, unban) by outcome
	ModerationActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminserve_moderation_actions_total",
			Help: "Total moderation actions attempted",
		},
		[]string{"action", "outcome"},
	)

	// actions refused because the subject already had one in flight
	BusyRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminserve_busy_rejections_total",
			Help: "Total actions rejected while the subject was busy",
		},
		[]string{"kind"},
	)

	// snapshot cache events: hit, miss, stale, invalidate
	SnapshotEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminserve_snapshot_events_total",
			Help: "Snapshot cache events per collection",
		},
		[]string{"collection", "event"},
	)

	// login attempts by outcome
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminserve_login_attempts_total",
			Help: "Total admin login attempts",
		},
		[]string{"outcome"},
	)

	// rate limit requests per scope
	RateLimitRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminserve_ratelimit_requests_total",
			Help: "Total rate limited operations checked",
		},
		[]string{"scope"},
	)

	// rate limit hits per scope
	RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminserve_ratelimit_hits_total",
			Help: "Total operations rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	// CSV exports per collection
	ExportCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminserve_exports_total",
			Help: "Total CSV exports served",
		},
		[]string{"collection"},
	)
)

func init() {
	// register all metrics
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		BackendRequests,
		BackendLatency,
		ModerationActions,
		BusyRejections,
		SnapshotEvents,
		LoginAttempts,
		RateLimitRequests,
		RateLimitHits,
		ExportCount,
	)
}
