// Package metrics provides Prometheus metrics export for the scheduling
// assistant.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exports dialogue and provider metrics in Prometheus
// format. A nil exporter is valid and records nothing, so callers never
// branch on whether metrics are enabled.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Dialogue metrics
	turnLatency *prometheus.HistogramVec
	turns       *prometheus.CounterVec
	sessions    prometheus.Gauge

	// Extraction metrics
	extractions *prometheus.CounterVec

	// LLM token metrics
	llmTokens *prometheus.CounterVec

	// Calendar metrics
	eventCreations *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for the turn latency histogram (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.turnLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schedsense_chat_turn_duration_seconds",
			Help:    "End-to-end latency of one chat turn",
			Buckets: cfg.LatencyBuckets,
		},
		[]string{"outcome"},
	)

	e.turns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedsense_chat_turns_total",
			Help: "Chat turns processed, by outcome",
		},
		[]string{"outcome"},
	)

	e.sessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedsense_sessions_active",
			Help: "Live conversation sessions",
		},
	)

	e.extractions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedsense_extractions_total",
			Help: "Extraction calls, by result (update, message, error)",
		},
		[]string{"result"},
	)

	e.llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedsense_llm_tokens_total",
			Help: "LLM tokens consumed, by kind",
		},
		[]string{"kind"},
	)

	e.eventCreations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedsense_event_creations_total",
			Help: "Calendar event creation attempts, by result",
		},
		[]string{"result"},
	)

	registry.MustRegister(
		e.turnLatency,
		e.turns,
		e.sessions,
		e.extractions,
		e.llmTokens,
		e.eventCreations,
	)
	return e
}

// RecordTurn records one completed chat turn with its terminal outcome
// (for example "question", "created", "error").
func (e *PrometheusExporter) RecordTurn(outcome string, duration time.Duration) {
	if e == nil {
		return
	}
	e.turns.WithLabelValues(outcome).Inc()
	e.turnLatency.WithLabelValues(outcome).Observe(duration.Seconds())
}

// SetActiveSessions sets the live session gauge.
func (e *PrometheusExporter) SetActiveSessions(n int) {
	if e == nil {
		return
	}
	e.sessions.Set(float64(n))
}

// RecordExtraction records the result of one extraction call.
func (e *PrometheusExporter) RecordExtraction(result string) {
	if e == nil {
		return
	}
	e.extractions.WithLabelValues(result).Inc()
}

// RecordLLMTokens records token usage for one completion call.
func (e *PrometheusExporter) RecordLLMTokens(prompt, completion int) {
	if e == nil {
		return
	}
	e.llmTokens.WithLabelValues("prompt").Add(float64(prompt))
	e.llmTokens.WithLabelValues("completion").Add(float64(completion))
}

// RecordEventCreation records one calendar creation attempt by result
// ("created", "auth_error", "remote_error", "rejected").
func (e *PrometheusExporter) RecordEventCreation(result string) {
	if e == nil {
		return
	}
	e.eventCreations.WithLabelValues(result).Inc()
}

// Handler returns the HTTP handler serving the exporter's registry.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}
