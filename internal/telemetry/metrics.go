// Package telemetry exposes Prometheus metrics for the chat session core.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Completion kinds
const (
	KindReply     = "reply"
	KindGreeting  = "greeting"
	KindSummarize = "summarize"
)

// Metrics holds the collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	completions       *prometheus.CounterVec
	completionLatency *prometheus.HistogramVec
	turns             *prometheus.CounterVec
	summaryWrites     *prometheus.CounterVec
	staleResults      prometheus.Counter
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "confidant_completions_total",
			Help: "Completion requests by kind and outcome",
		}, []string{"kind", "status"}),
		completionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "confidant_completion_duration_seconds",
			Help:    "Completion round-trip latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "confidant_turns_total",
			Help: "Turns appended to the session log by speaker",
		}, []string{"speaker"}),
		summaryWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "confidant_summary_writes_total",
			Help: "Summary persistence attempts by outcome",
		}, []string{"status"}),
		staleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confidant_stale_results_total",
			Help: "Completion results dropped because the session rolled over",
		}),
	}
	m.registry.MustRegister(m.completions, m.completionLatency, m.turns, m.summaryWrites, m.staleResults)
	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveCompletion records one completion round trip. Safe on a nil receiver.
func (m *Metrics) ObserveCompletion(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(kind, status(err)).Inc()
	m.completionLatency.WithLabelValues(kind).Observe(d.Seconds())
}

// IncTurn counts an appended turn
func (m *Metrics) IncTurn(speaker string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(speaker).Inc()
}

// ObserveSummaryWrite counts a persistence attempt
func (m *Metrics) ObserveSummaryWrite(err error) {
	if m == nil {
		return
	}
	m.summaryWrites.WithLabelValues(status(err)).Inc()
}

// IncStale counts a dropped late result
func (m *Metrics) IncStale() {
	if m == nil {
		return
	}
	m.staleResults.Inc()
}

// Registry exposes the underlying registry (for tests and custom exporters)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
