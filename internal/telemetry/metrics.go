// Package telemetry exposes Prometheus instrumentation for the evaluation
// engine and a small HTTP server publishing /metrics and /health.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	EvaluationsTotal    *prometheus.CounterVec
	SignalsTotal        *prometheus.CounterVec
	GateFailuresTotal   *prometheus.CounterVec
	DetectorPanicsTotal *prometheus.CounterVec
	EvalDuration        prometheus.Histogram
	ConfidenceScores    prometheus.Histogram
	ConfluenceScores    prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgescan_evaluations_total",
			Help: "Detector evaluations performed, by detector type and outcome",
		}, []string{"detector", "outcome"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgescan_signals_total",
			Help: "Signals emitted, by detector type and direction",
		}, []string{"detector", "direction"}),
		GateFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgescan_gate_failures_total",
			Help: "Gate check failures, by detector type and check name",
		}, []string{"detector", "check"}),
		DetectorPanicsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgescan_detector_panics_total",
			Help: "Detector panics recovered by the engine, by detector type",
		}, []string{"detector"}),
		EvalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "edgescan_symbol_eval_duration_seconds",
			Help:    "Wall time to evaluate one symbol across all detectors",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		ConfidenceScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "edgescan_signal_confidence",
			Help:    "Distribution of emitted signal confidence scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		ConfluenceScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "edgescan_confluence_score",
			Help:    "Distribution of per-symbol confluence scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.EvaluationsTotal,
		m.SignalsTotal,
		m.GateFailuresTotal,
		m.DetectorPanicsTotal,
		m.EvalDuration,
		m.ConfidenceScores,
		m.ConfluenceScores,
	)
	return m
}

// Registry returns the backing registry for exposition and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveEvaluation records one detector evaluation and its outcome
// ("signal", "gated" or "panic").
func (m *Metrics) ObserveEvaluation(detector, outcome string) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(detector, outcome).Inc()
}

// ObserveSignal records one emitted signal.
func (m *Metrics) ObserveSignal(detector, direction string, confidence float64) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(detector, direction).Inc()
	m.ConfidenceScores.Observe(confidence)
}

// ObserveGateFailure records which check stopped a detector.
func (m *Metrics) ObserveGateFailure(detector, check string) {
	if m == nil {
		return
	}
	m.GateFailuresTotal.WithLabelValues(detector, check).Inc()
}

// ObservePanic records a recovered detector panic.
func (m *Metrics) ObservePanic(detector string) {
	if m == nil {
		return
	}
	m.DetectorPanicsTotal.WithLabelValues(detector).Inc()
}

// ObserveSymbolDuration records the wall time of one symbol evaluation.
func (m *Metrics) ObserveSymbolDuration(seconds float64) {
	if m == nil {
		return
	}
	m.EvalDuration.Observe(seconds)
}

// ObserveConfluence records a per-symbol confluence score.
func (m *Metrics) ObserveConfluence(score float64) {
	if m == nil {
		return
	}
	m.ConfluenceScores.Observe(score)
}
