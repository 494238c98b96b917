// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InteractionsTotal counts ledger rows written by interaction type.
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogml_interactions_total",
		Help: "Total number of post interactions recorded by type",
	}, []string{"type"})

	// CommentsModeratedTotal counts moderation status changes by target status.
	CommentsModeratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogml_comments_moderated_total",
		Help: "Total number of comment moderation actions by resulting status",
	}, []string{"status"})

	// MLRequestsTotal counts ML service calls by operation and outcome.
	MLRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogml_ml_requests_total",
		Help: "Total number of ML service requests by operation and outcome",
	}, []string{"operation", "outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogml_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogml_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)

// ML request outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
