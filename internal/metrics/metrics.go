// Package metrics exposes Prometheus counters for the intake pipeline.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "intake"

// Metrics collects intake counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	turns          *prometheus.CounterVec
	completions    *prometheus.CounterVec
	sinkFailures   *prometheus.CounterVec
	notifyFailures prometheus.Counter
}

// New registers the intake collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Chat turns processed, by category and the stage reached after the turn.",
		}, []string{"category", "stage"}),
		completions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Completed intakes, by category and whether the record was persisted.",
		}, []string{"category", "persisted"}),
		sinkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Intake records that could not be persisted.",
		}, []string{"reason"}),
		notifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Completion notifications that failed or were skipped.",
		}),
	}
}

// NewRegistry returns a registry with the Go and process collectors installed.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveTurn counts one processed turn.
func (m *Metrics) ObserveTurn(category, stage string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(category, stage).Inc()
}

// ObserveCompletion counts a completed intake.
func (m *Metrics) ObserveCompletion(category string, persisted bool) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(category, strconv.FormatBool(persisted)).Inc()
}

// ObserveSinkFailure counts a record that was not persisted.
func (m *Metrics) ObserveSinkFailure(reason string) {
	if m == nil {
		return
	}
	m.sinkFailures.WithLabelValues(reason).Inc()
}

// ObserveNotifyFailure counts a notification that did not go out.
func (m *Metrics) ObserveNotifyFailure() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}
