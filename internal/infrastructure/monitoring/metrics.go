package monitoring

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation and export outcomes used as metric labels
const (
	OutcomeSuccess      = "success"
	OutcomeBlocked      = "blocked"
	OutcomeFailed       = "failed"
	OutcomeEmpty        = "empty"
	OutcomeInvalid      = "invalid"
	OutcomeUnconfigured = "unconfigured"
)

// MetricsCollector holds the application's Prometheus collectors. Each
// collector owns its registry so tests can build as many as they need.
type MetricsCollector struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Business metrics
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	exportsTotal       *prometheus.CounterVec
	exportedRecipes    prometheus.Histogram
	rateLimitedTotal   prometheus.Counter
}

// NewMetricsCollector creates a collector on a fresh registry with the Go
// runtime and process collectors attached
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipegen_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipegen_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "route"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipegen_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipegen_generations_total",
				Help: "Recipe generation attempts by outcome",
			},
			[]string{"outcome"},
		),
		generationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipegen_generation_duration_seconds",
				Help:    "Generation backend call duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"provider"},
		),
		exportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipegen_pdf_exports_total",
				Help: "PDF export requests by outcome",
			},
			[]string{"outcome"},
		),
		exportedRecipes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recipegen_pdf_export_recipes",
				Help:    "Number of recipes per exported PDF",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
		),
		rateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recipegen_rate_limited_total",
				Help: "Requests rejected by the generation rate limiter",
			},
		),
	}
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterStoreSize exposes the number of stored recipes as a gauge read
// on every scrape
func (m *MetricsCollector) RegisterStoreSize(count func(ctx context.Context) (int, error)) {
	promauto.With(m.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "recipegen_recipes_stored",
			Help: "Number of recipes currently held in memory",
		},
		func() float64 {
			n, err := count(context.Background())
			if err != nil {
				return 0
			}
			return float64(n)
		},
	)
}

// HTTPRequest records one served request
func (m *MetricsCollector) HTTPRequest(method, route string, status int, duration time.Duration, size int) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	m.httpResponseSize.WithLabelValues(method, route).Observe(float64(size))
}

// Generation records the outcome of a generate request
func (m *MetricsCollector) Generation(outcome string) {
	m.generationsTotal.WithLabelValues(outcome).Inc()
}

// GenerationLatency records how long the backend took to answer
func (m *MetricsCollector) GenerationLatency(provider string, duration time.Duration) {
	m.generationDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// Export records the outcome of a PDF export and, on success, its size
func (m *MetricsCollector) Export(outcome string, recipes int) {
	m.exportsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.exportedRecipes.Observe(float64(recipes))
	}
}

// RateLimited counts a request rejected by the rate limiter
func (m *MetricsCollector) RateLimited() {
	m.rateLimitedTotal.Inc()
}

// Handler returns the Prometheus metrics HTTP handler for this registry
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
