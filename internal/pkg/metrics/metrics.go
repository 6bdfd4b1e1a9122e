// Package metrics provides Prometheus metrics recording for internal packages.
// This package exists to avoid import cycles between storage and middleware packages.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// dbQueryDuration tracks storage query duration in seconds
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "decisiontrace_db_query_duration_seconds",
			Help:    "Storage query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	// dbQueryTotal tracks total storage queries
	dbQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decisiontrace_db_queries_total",
			Help: "Total number of storage queries",
		},
		[]string{"operation"},
	)

	// dbQueryErrors tracks storage query errors
	dbQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decisiontrace_db_query_errors_total",
			Help: "Total number of storage query errors",
		},
		[]string{"operation"},
	)

	// tracesRecorded tracks traces whose recording scope has closed
	tracesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decisiontrace_traces_recorded_total",
			Help: "Total number of recorded traces by final status",
		},
		[]string{"status"},
	)

	// stepsRecorded tracks steps whose recording scope has closed
	stepsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decisiontrace_steps_recorded_total",
			Help: "Total number of recorded steps by final status",
		},
		[]string{"status"},
	)
)

// RecordDBQuery records storage query metrics
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryTotal.WithLabelValues(operation).Inc()
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDBError records a storage query error
func RecordDBError(operation string) {
	dbQueryErrors.WithLabelValues(operation).Inc()
}

// RecordTrace records a closed trace recording scope
func RecordTrace(status string) {
	tracesRecorded.WithLabelValues(status).Inc()
}

// RecordStep records a closed step recording scope
func RecordStep(status string) {
	stepsRecorded.WithLabelValues(status).Inc()
}
