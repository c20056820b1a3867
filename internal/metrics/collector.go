// Package metrics registers Huddle's Prometheus metrics and serves them in
// the exposition format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the global metrics collector.
var Collector = NewMetricsCollector()

var latencyBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60}

// MetricsCollector owns a private registry so tests can build isolated ones.
type MetricsCollector struct {
	registry  *prometheus.Registry
	startTime time.Time

	agentRequests     *prometheus.CounterVec
	parseDegradations *prometheus.CounterVec
	providerErrors    *prometheus.CounterVec
	llmLatency        *prometheus.HistogramVec

	llmRequests      prometheus.Counter
	toneStreams      prometheus.Gauge
	staleToneResults prometheus.Counter
}

// NewMetricsCollector creates a collector with every Huddle metric registered.
func NewMetricsCollector() *MetricsCollector {
	c := &MetricsCollector{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),

		agentRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "huddle_agent_requests_total",
			Help: "Agent dispatches by kind and outcome",
		}, []string{"agent", "outcome"}),
		parseDegradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "huddle_parse_degradations_total",
			Help: "Provider outputs normalized by a fallback strategy",
		}, []string{"agent"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "huddle_provider_errors_total",
			Help: "Failed LLM completions by provider",
		}, []string{"provider"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "huddle_llm_latency_seconds",
			Help:    "LLM request latency in seconds",
			Buckets: latencyBuckets,
		}, []string{"provider"}),

		llmRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "huddle_llm_requests_total",
			Help: "Total LLM API requests",
		}),
		toneStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "huddle_tone_streams",
			Help: "Open live tone analysis connections",
		}),
		staleToneResults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "huddle_tone_stale_results_total",
			Help: "Tone results discarded because the draft changed",
		}),
	}

	c.registry.MustRegister(
		c.agentRequests,
		c.parseDegradations,
		c.providerErrors,
		c.llmLatency,
		c.llmRequests,
		c.toneStreams,
		c.staleToneResults,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "huddle_uptime_seconds",
			Help: "Time since start in seconds",
		}, func() float64 { return c.Uptime().Seconds() }),
		collectors.NewGoCollector(),
	)
	return c
}

// Uptime returns how long the collector has been running.
func (c *MetricsCollector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Handler serves the registry in Prometheus text format.
func (c *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// AgentRequest counts one dispatch by agent kind and outcome (ok, caller_error, config_error, provider_error, aggregation_error, error).
func (c *MetricsCollector) AgentRequest(kind, outcome string) {
	c.agentRequests.WithLabelValues(kind, outcome).Inc()
}

// ParseDegraded counts a normalization that fell back to a lower-fidelity strategy.
func (c *MetricsCollector) ParseDegraded(kind string) {
	c.parseDegradations.WithLabelValues(kind).Inc()
}

// ProviderError counts a failed completion by provider name.
func (c *MetricsCollector) ProviderError(provider string) {
	c.providerErrors.WithLabelValues(provider).Inc()
}

// ObserveLLMLatency records one completion round trip.
func (c *MetricsCollector) ObserveLLMLatency(provider string, d time.Duration) {
	c.llmLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// --- Package-level shortcuts on the global collector ---

func AgentRequest(kind, outcome string) { Collector.AgentRequest(kind, outcome) }

func ParseDegraded(kind string) { Collector.ParseDegraded(kind) }

func ProviderError(provider string) { Collector.ProviderError(provider) }

func ObserveLLMLatency(provider string, d time.Duration) { Collector.ObserveLLMLatency(provider, d) }

var (
	LLMRequestsTotal = Collector.llmRequests
	ToneStreams      = Collector.toneStreams
	StaleToneResults = Collector.staleToneResults
)
