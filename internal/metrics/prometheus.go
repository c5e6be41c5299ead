package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace for all metrics
const metricsNamespace = "compliance_copilot"

// Collectors holds the Prometheus metrics of the service, registered on a
// private registry so several instances can coexist in tests.
//
// All methods are safe for concurrent use.
type Collectors struct {
	registry *prometheus.Registry

	// HTTPRequests counts requests by route, method and status code.
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration measures request latency by route.
	HTTPDuration *prometheus.HistogramVec
	// Summaries counts generated summaries by level and source kind.
	Summaries *prometheus.CounterVec
	// CacheOutcomes counts result cache lookups by outcome (HIT, MISS, SHARED).
	CacheOutcomes *prometheus.CounterVec
	// BackendCalls counts backend attempts by backend and outcome.
	BackendCalls *prometheus.CounterVec
	// BackendLatency measures backend attempt latency.
	BackendLatency *prometheus.HistogramVec
}

// NewCollectors creates and registers the service metrics plus the Go
// runtime and process collectors.
func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collectors{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		Summaries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "summaries_total",
			Help:      "Risk summaries served by level and source kind",
		}, []string{"level", "source_kind"}),
		CacheOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Result cache lookups by outcome",
		}, []string{"outcome"}),
		BackendCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "backend",
			Name:      "calls_total",
			Help:      "Summarization backend attempts by backend and outcome",
		}, []string{"backend", "outcome"}),
		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "backend",
			Name:      "call_duration_seconds",
			Help:      "Summarization backend attempt latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"backend"}),
	}
}

// ObserveBackendCall records one backend attempt.
func (c *Collectors) ObserveBackendCall(backend, outcome string, elapsed time.Duration) {
	c.BackendCalls.WithLabelValues(backend, outcome).Inc()
	c.BackendLatency.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// ObserveSummary records a served summary.
func (c *Collectors) ObserveSummary(level, sourceKind string) {
	c.Summaries.WithLabelValues(level, sourceKind).Inc()
}

// ObserveCacheOutcome records a cache lookup.
func (c *Collectors) ObserveCacheOutcome(outcome string) {
	c.CacheOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest records a finished request.
func (c *Collectors) ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RegisterGauge exposes value as a gauge read at scrape time.
func (c *Collectors) RegisterGauge(subsystem, name, help string, value func() float64) {
	c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, value))
}

// Registry returns the private registry.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
