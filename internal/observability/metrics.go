package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitstream_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fitstream_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FeedOperations counts feed mutations by operation and outcome.
	FeedOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitstream_feed_operations_total",
		Help: "Total feed operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// OptimisticReverts counts optimistic like toggles that had to be rolled back.
	OptimisticReverts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitstream_optimistic_reverts_total",
		Help: "Total optimistic like updates reverted after a failed call",
	}, []string{"strategy"})

	// ProfileLookups counts profile resolutions by source
	// (memo, session, store, placeholder).
	ProfileLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitstream_profile_lookups_total",
		Help: "Total profile resolutions by source",
	}, []string{"source"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordFeedOperation increments the feed operation counter.
func RecordFeedOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	FeedOperations.WithLabelValues(operation, outcome).Inc()
}
