package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossquery_executions_total",
			Help: "Total number of query executions by outcome.",
		},
		[]string{"status"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crossquery_execution_duration_seconds",
			Help:    "End-to-end query execution latency.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	subQueryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crossquery_subquery_duration_seconds",
			Help:    "Per-source sub-query latency by dialect family.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"dialect"},
	)
	sourceRowsFetchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossquery_source_rows_fetched_total",
			Help: "Total rows fetched from sources by dialect family.",
		},
		[]string{"dialect"},
	)
	joinCoercionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crossquery_join_coercions_total",
			Help: "Total join key pairs compared after type coercion.",
		},
	)
	resultsTruncatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crossquery_results_truncated_total",
			Help: "Total executions whose result exceeded the soft row cap.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		queryExecutionsTotal,
		queryDurationSeconds,
		subQueryDurationSeconds,
		sourceRowsFetchedTotal,
		joinCoercionsTotal,
		resultsTruncatedTotal,
	)
}

func ObserveExecution(status string, elapsed time.Duration) {
	queryExecutionsTotal.WithLabelValues(status).Inc()
	queryDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveSubQuery(dialect string, rows int, elapsed time.Duration) {
	subQueryDurationSeconds.WithLabelValues(dialect).Observe(elapsed.Seconds())
	if rows > 0 {
		sourceRowsFetchedTotal.WithLabelValues(dialect).Add(float64(rows))
	}
}

func AddJoinCoercions(count int) {
	if count > 0 {
		joinCoercionsTotal.Add(float64(count))
	}
}

func IncrementResultTruncated() {
	resultsTruncatedTotal.Inc()
}
