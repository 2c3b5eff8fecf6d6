// Package metrics exposes Prometheus collectors for the Task Engine's
// phase loop, the Safety Checker's classifications, and the Command
// Executor's run durations, the way the teacher's internal/observability
// package wraps client_golang counters and histograms behind a small
// recording API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors a single process registers once.
type Metrics struct {
	phaseTotal       *prometheus.CounterVec
	phaseDuration    *prometheus.HistogramVec
	classifications  *prometheus.CounterVec
	executorDuration prometheus.Histogram
}

// New registers a fresh collector set against reg. Pass
// prometheus.DefaultRegisterer for the process-wide default registry,
// or prometheus.NewRegistry() for an isolated one in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		phaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "termaite_phase_total",
			Help: "Count of Task Engine phase invocations, by phase name.",
		}, []string{"phase"}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "termaite_phase_duration_seconds",
			Help: "Duration of each Task Engine phase call, by phase name.",
		}, []string{"phase"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "termaite_safety_classification_total",
			Help: "Count of Safety Checker classifications, by classification.",
		}, []string{"classification"}),
		executorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "termaite_executor_duration_seconds",
			Help:    "Duration of shell commands run by the Command Executor.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.phaseTotal, m.phaseDuration, m.classifications, m.executorDuration)
	return m
}

// RecordPhase records one invocation of phase and how long it took.
func (m *Metrics) RecordPhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseTotal.WithLabelValues(phase).Inc()
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordClassification records one Safety Checker verdict.
func (m *Metrics) RecordClassification(classification string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(classification).Inc()
}

// RecordExecutorDuration records how long one shell command took to run.
func (m *Metrics) RecordExecutorDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.executorDuration.Observe(d.Seconds())
}
