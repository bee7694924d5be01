// Package observability provides Prometheus instrumentation for the API.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the HTTP layer.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec   // labels: method, path, status
	RequestDuration *prometheus.HistogramVec // labels: method, path
}

// NewMetrics creates and registers all API metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoforecast",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern, and status code.",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geoforecast",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by method and route pattern.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path"}),
	}

	prometheus.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them with any
// registry. Safe to call once per test.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RequestsTotal:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geoforecast", Name: "http_requests_total"}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "geoforecast", Name: "http_request_duration_seconds"}, []string{"method", "path"}),
	}
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
