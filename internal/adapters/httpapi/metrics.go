package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP-boundary instrumentation.
type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewMetrics builds a self-contained registry. activeSimulations feeds the
// gauge on every scrape.
func NewMetrics(activeSimulations func() int) *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, route, and status code.",
	}, []string{"method", "path", "status"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
	active := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "simulation_active_sessions",
		Help: "Number of simulation instances currently running.",
	}, func() float64 { return float64(activeSimulations()) })

	registry.MustRegister(requests, durations, active)
	return &Metrics{registry: registry, requests: requests, durations: durations}
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
