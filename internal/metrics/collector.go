// Package metrics exposes Prometheus metrics for the relay.
//
// Metrics:
//   - chatrelay_http_requests_total: HTTP requests by method, route and status
//   - chatrelay_http_request_duration_seconds: HTTP latency by method and route
//   - chatrelay_provider_requests_total: provider calls by operation and outcome
//   - chatrelay_provider_latency_seconds: time to first response from the provider
//   - chatrelay_provider_tokens_total: tokens reported by the provider
//   - chatrelay_stream_chunks_total: SSE content frames relayed to clients
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatrelay"

// Provider operations
const (
	OpComplete = "complete"
	OpStream   = "stream"
)

// Collector owns every metric and the registry they are registered with
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	providerTokens   *prometheus.CounterVec
	streamChunks     prometheus.Counter
}

// NewCollector creates and registers all metrics. If registry is nil a new
// one is created with Go runtime and process collectors attached.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// LLM calls are slow; buckets span 50ms to 60s
	latencyBuckets := []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

	c := &Collector{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   latencyBuckets,
			},
			[]string{"method", "route"},
		),
		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "requests_total",
				Help:      "Total number of provider calls",
			},
			[]string{"operation", "outcome"},
		),
		providerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "latency_seconds",
				Help:      "Provider latency until the response (or stream) is available",
				Buckets:   latencyBuckets,
			},
			[]string{"operation"},
		),
		providerTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "tokens_total",
				Help:      "Tokens reported by the provider",
			},
			[]string{"type"},
		),
		streamChunks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "chunks_total",
				Help:      "Content frames relayed over SSE",
			},
		),
	}

	registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.providerRequests,
		c.providerLatency,
		c.providerTokens,
		c.streamChunks,
	)

	return c
}

// Registry returns the registry metrics are registered with
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordHTTPRequest records one served HTTP request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordProviderCall records the outcome of a provider call
func (c *Collector) RecordProviderCall(operation string, err error, latency time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.providerRequests.WithLabelValues(operation, outcome).Inc()
	c.providerLatency.WithLabelValues(operation).Observe(latency.Seconds())
}

// RecordTokens adds provider-reported token usage
func (c *Collector) RecordTokens(prompt, completion int) {
	if prompt > 0 {
		c.providerTokens.WithLabelValues("prompt").Add(float64(prompt))
	}
	if completion > 0 {
		c.providerTokens.WithLabelValues("completion").Add(float64(completion))
	}
}

// RecordStreamChunk counts one relayed SSE content frame
func (c *Collector) RecordStreamChunk() {
	c.streamChunks.Inc()
}

// Handler returns the Prometheus exposition handler for this registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
