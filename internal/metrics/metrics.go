// Package metrics exposes Prometheus metrics for the inventory core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_operations_total",
			Help: "Total number of core inventory operations.",
		},
		[]string{"op", "status"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inventory_operation_duration_seconds",
			Help:    "Histogram of core operation durations.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"op", "status"},
	)
)

func init() {
	prometheus.MustRegister(operationsTotal)
	prometheus.MustRegister(operationDuration)
}

// RecordOperation records one core operation outcome.
// Status is one of: ok, validation_error, not_found, invalid_argument,
// store_error.
func RecordOperation(op, status string, duration time.Duration) {
	operationsTotal.WithLabelValues(op, status).Inc()
	operationDuration.WithLabelValues(op, status).Observe(duration.Seconds())
}

// Handler returns the HTTP handler exporting the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
