package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// RequestsTotal counts served requests by route template and status code.
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "petboard",
		Subsystem: "backend",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests served, labeled by route and status.",
	}, []string{"route", "status"})

	RequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "petboard",
		Subsystem: "backend",
		Name:      "http_request_duration_seconds",
		Help:      "Time to serve an HTTP request, labeled by route.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"route"})

	// ReportsCreatedTotal counts stored reports by type.
	ReportsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "petboard",
		Subsystem: "backend",
		Name:      "reports_created_total",
		Help:      "Total number of lost and found reports stored.",
	}, []string{"type"})

	PublishErrorTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "petboard",
		Subsystem: "backend",
		Name:      "rabbitmq_publish_error_total",
		Help:      "Total number of report events that could not be published.",
	})
)

// Register registers backend metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestDurationSeconds,
			ReportsCreatedTotal,
			PublishErrorTotal,
		)
	})
}
