// Package metrics defines the Prometheus collectors for the solver service
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SolveQueriesTotal    *prometheus.CounterVec
	SolveLatency         *prometheus.HistogramVec
	SolveMatchesCount    prometheus.Histogram
	SubsetsExamined      prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	DictionaryWords      prometheus.Gauge
	DictionaryKeys       prometheus.Gauge
	CircuitBreakerState  *prometheus.GaugeVec
	EventsConsumedTotal  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates all collectors and registers them with reg. A nil reg uses
// the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SolveQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jumble_solve_queries_total",
				Help: "Total solve queries by result (hit, miss, zero_result, invalid, timeout, error).",
			},
			[]string{"result"},
		),
		SolveLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jumble_solve_latency_seconds",
				Help:    "Solve latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"cache_status"},
		),
		SolveMatchesCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jumble_solve_matches_count",
				Help:    "Number of dictionary words returned per solve.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
			},
		),
		SubsetsExamined: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jumble_subsets_examined",
				Help:    "Distinct letter sub-multisets looked up per solve.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 12),
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of result cache misses.",
			},
		),
		DictionaryWords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "jumble_dictionary_words",
				Help: "Distinct words in the loaded dictionary.",
			},
		),
		DictionaryKeys: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "jumble_dictionary_keys",
				Help: "Distinct canonical letter keys in the loaded dictionary.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		EventsConsumedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jumble_events_consumed_total",
				Help: "Solve events consumed by the analytics service by status.",
			},
			[]string{"status"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SolveQueriesTotal,
		m.SolveLatency,
		m.SolveMatchesCount,
		m.SubsetsExamined,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DictionaryWords,
		m.DictionaryKeys,
		m.CircuitBreakerState,
		m.EventsConsumedTotal,
	)

	m.gatherer = prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler returns the scrape handler for the registry m was registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
