// Package metrics exposes Prometheus instruments for ledger operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// LedgerOperations counts single-entry operations by category, operation and outcome.
var LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "payroll_ledger",
	Name:      "operations_total",
	Help:      "Single-entry ledger operations by outcome.",
}, []string{"category", "operation", "outcome"})

// BulkMembers counts members processed by bulk operations.
var BulkMembers = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "payroll_ledger",
	Name:      "bulk_members_total",
	Help:      "Members processed by bulk operations by outcome.",
}, []string{"category", "operation", "outcome"})

// BulkDuration observes bulk operation latency in seconds.
var BulkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "payroll_ledger",
	Name:      "bulk_duration_seconds",
	Help:      "Duration of bulk ledger operations.",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
}, []string{"category", "operation"})

// StatusCacheLookups counts status-count cache hits and misses.
var StatusCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "payroll_ledger",
	Name:      "status_cache_lookups_total",
	Help:      "Status count cache lookups by result.",
}, []string{"result"})

// ObserveOperation records the outcome of a single-entry operation.
func ObserveOperation(category, operation string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	LedgerOperations.WithLabelValues(category, operation, outcome).Inc()
}

// ObserveBulk records the member outcomes and duration of a bulk operation.
func ObserveBulk(category, operation string, ok, skipped, failed int, started time.Time) {
	BulkMembers.WithLabelValues(category, operation, OutcomeOK).Add(float64(ok))
	BulkMembers.WithLabelValues(category, operation, OutcomeSkipped).Add(float64(skipped))
	BulkMembers.WithLabelValues(category, operation, OutcomeError).Add(float64(failed))
	BulkDuration.WithLabelValues(category, operation).Observe(time.Since(started).Seconds())
}
