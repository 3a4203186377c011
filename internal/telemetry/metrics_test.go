package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findMetric(t *testing.T, families []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.ObserveEvaluation("mean_reversion_long", "signal")
	m.ObserveEvaluation("mean_reversion_long", "gated")
	m.ObserveEvaluation("mean_reversion_long", "gated")
	m.ObserveSignal("mean_reversion_long", "LONG", 76.1)
	m.ObserveGateFailure("mean_reversion_long", "rsi_oversold")
	m.ObservePanic("squeeze_breakout")
	m.ObserveSymbolDuration(0.003)
	m.ObserveConfluence(62.5)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	evals := findMetric(t, families, "edgescan_evaluations_total")
	require.NotNil(t, evals)
	total := 0.0
	for _, metric := range evals.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, total)

	signals := findMetric(t, families, "edgescan_signals_total")
	require.NotNil(t, signals)
	require.Len(t, signals.GetMetric(), 1)
	assert.Equal(t, 1.0, signals.GetMetric()[0].GetCounter().GetValue())

	labels := map[string]string{}
	for _, lp := range signals.GetMetric()[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	assert.Equal(t, "mean_reversion_long", labels["detector"])
	assert.Equal(t, "LONG", labels["direction"])

	panics := findMetric(t, families, "edgescan_detector_panics_total")
	require.NotNil(t, panics)
	assert.Equal(t, 1.0, panics.GetMetric()[0].GetCounter().GetValue())

	confidence := findMetric(t, families, "edgescan_signal_confidence")
	require.NotNil(t, confidence)
	assert.Equal(t, uint64(1), confidence.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestNilMetricsAreSafe(t *testing.T) {
	// The engine runs with metrics disabled in some tests; every observer
	// must tolerate a nil receiver.
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveEvaluation("d", "signal")
		m.ObserveSignal("d", "LONG", 50)
		m.ObserveGateFailure("d", "check")
		m.ObservePanic("d")
		m.ObserveSymbolDuration(0.1)
		m.ObserveConfluence(50)
	})
}

func TestServerEndpoints(t *testing.T) {
	m := NewMetrics()
	m.ObserveEvaluation("mean_reversion_long", "signal")

	srv := NewServer(":0", m)
	ts := httptest.NewServer(srv.httpServer.Handler)
	defer ts.Close()

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
