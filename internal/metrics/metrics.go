package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lpg_http_requests_total",
		Help: "HTTP requests by method, path and status code",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lpg_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	BillsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lpg_bills_generated_total",
		Help: "Monthly bills created by the aggregator",
	})

	BillsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lpg_bills_updated_total",
		Help: "Monthly bills re-aggregated in place",
	})

	PaymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lpg_payments_recorded_total",
		Help: "Payments applied against bills",
	})

	ReconciliationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lpg_reconciliation_runs_total",
		Help: "Bulk reconciliation runs by job kind",
	}, []string{"job"})
)
