package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency (seconds).
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Database query latency (seconds).
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// Planner function call latency (milliseconds).
	PlannerCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_call_latency_ms",
			Help:    "AI planner function call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"endpoint", "status"},
	)

	// Change feed consume latency (milliseconds).
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// Reorder operations.
	ReorderCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reorder_count",
			Help: "Total number of reorder operations",
		},
		[]string{"container", "status"}, // container: tasks, subtasks
	)

	// Plan overrides accepted.
	PlanOverrideCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_override_count",
			Help: "Total number of AI plan bulk overrides",
		},
		[]string{"target", "status"}, // target: project, subtasks
	)

	// Dependency-gated completion refusals.
	DependencyBlockedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dependency_blocked_count",
			Help: "Completion attempts refused because of incomplete dependencies",
		},
	)

	// Slow database queries.
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Queries slower than the configured threshold",
		},
	)

	// Change feed events published.
	ChangeEventCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_event_count",
			Help: "Total number of table change events recorded",
		},
		[]string{"table", "action"},
	)
)

// RecordHTTPRequestDuration records HTTP request latency.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration records database query latency.
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordPlannerCallLatency records AI planner call latency.
func RecordPlannerCallLatency(endpoint, status string, duration time.Duration) {
	PlannerCallLatency.WithLabelValues(endpoint, status).Observe(float64(duration.Milliseconds()))
}

// RecordMQConsumeLatency records MQ consumption latency.
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// IncrementReorder counts a reorder operation.
func IncrementReorder(container, status string) {
	ReorderCount.WithLabelValues(container, status).Inc()
}

// IncrementPlanOverride counts an accepted AI plan override.
func IncrementPlanOverride(target, status string) {
	PlanOverrideCount.WithLabelValues(target, status).Inc()
}

// IncrementDependencyBlocked counts a refused completion attempt.
func IncrementDependencyBlocked() {
	DependencyBlockedCount.Inc()
}

// IncrementSlowQuery counts a slow database query. The duration itself goes
// to DBQueryDuration; this counter only tracks threshold breaches.
func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}

// IncrementChangeEvent counts a recorded change event.
func IncrementChangeEvent(table, action string) {
	ChangeEventCount.WithLabelValues(table, action).Inc()
}
