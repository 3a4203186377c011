package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgescan/edgescan/internal/snapshot"
)

func TestTrailRecordsChecksInOrder(t *testing.T) {
	tr := NewTrail()
	assert.True(t, tr.Check("first", true, 1.0, 0.5, "value %.1f above %.1f", 1.0, 0.5))
	assert.False(t, tr.Check("second", false, 0.2, 0.5, "value %.1f below %.1f", 0.2, 0.5))

	result := tr.Result()
	assert.False(t, result.Passed)
	require.Len(t, result.Checks, 2)
	assert.Equal(t, "first", result.Checks[0].Name)
	assert.Equal(t, "second", result.Checks[1].Name)
	assert.Equal(t, []string{"first"}, result.PassedChecks)
	require.Len(t, result.FailureReasons, 1)
	assert.Contains(t, result.FailureReasons[0], "below")
}

func TestTrailSkipNeitherPassesNorFails(t *testing.T) {
	tr := NewTrail()
	tr.Skip("vwap_stretch", "VWAP unavailable on weekend")
	result := tr.Result()

	assert.True(t, result.Passed)
	require.Len(t, result.Checks, 1)
	assert.True(t, result.Checks[0].Skipped)
	assert.Empty(t, result.PassedChecks)
	assert.Empty(t, result.FailureReasons)
}

func TestTrailFailRecordsMissingData(t *testing.T) {
	tr := NewTrail()
	tr.Fail("rsi_oversold", "RSI(14) unavailable")
	result := tr.Result()

	assert.False(t, result.Passed)
	assert.Equal(t, []string{"RSI(14) unavailable"}, result.FailureReasons)
}

// stubDetector is a minimal detector for registry tests.
type stubDetector struct {
	typ     string
	classes []snapshot.AssetClass
	options bool
	factors []Factor
}

func (d *stubDetector) Type() string                        { return d.typ }
func (d *stubDetector) Direction() Direction                { return Long }
func (d *stubDetector) AssetClasses() []snapshot.AssetClass { return d.classes }
func (d *stubDetector) RequiresOptionsData() bool           { return d.options }
func (d *stubDetector) Gate(*snapshot.Snapshot) GateResult  { return GateResult{Passed: true} }
func (d *stubDetector) Factors() []Factor                   { return d.factors }

func validFactor() []Factor {
	return []Factor{{Name: "f", Weight: 1.0, Evaluate: func(*snapshot.Snapshot) float64 { return 50 }}}
}

func TestNewRegistryValidation(t *testing.T) {
	t.Run("duplicate type", func(t *testing.T) {
		_, err := NewRegistry(
			&stubDetector{typ: "a", factors: validFactor()},
			&stubDetector{typ: "a", factors: validFactor()},
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("empty type", func(t *testing.T) {
		_, err := NewRegistry(&stubDetector{typ: "", factors: validFactor()})
		assert.Error(t, err)
	})

	t.Run("non-positive weight", func(t *testing.T) {
		bad := []Factor{{Name: "f", Weight: 0, Evaluate: func(*snapshot.Snapshot) float64 { return 50 }}}
		_, err := NewRegistry(&stubDetector{typ: "a", factors: bad})
		assert.Error(t, err)
	})

	t.Run("nil evaluate", func(t *testing.T) {
		bad := []Factor{{Name: "f", Weight: 0.5}}
		_, err := NewRegistry(&stubDetector{typ: "a", factors: bad})
		assert.Error(t, err)
	})
}

func TestRegistryLookupAndOrder(t *testing.T) {
	a := &stubDetector{typ: "a", factors: validFactor()}
	b := &stubDetector{typ: "b", factors: validFactor()}
	r, err := NewRegistry(a, b)
	require.NoError(t, err)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []Detector{a, b}, r.All())

	got, ok := r.Get("b")
	assert.True(t, ok)
	assert.Same(t, Detector(b), got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryForSnapshotFiltering(t *testing.T) {
	all := &stubDetector{typ: "all", factors: validFactor()}
	stockOnly := &stubDetector{typ: "stock_only", classes: []snapshot.AssetClass{snapshot.AssetStock}, factors: validFactor()}
	needsOptions := &stubDetector{typ: "needs_options", options: true, factors: validFactor()}
	r, err := NewRegistry(all, stockOnly, needsOptions)
	require.NoError(t, err)

	t.Run("index snapshot without options", func(t *testing.T) {
		s := &snapshot.Snapshot{Symbol: "SPX", AssetClass: snapshot.AssetIndex}
		got := r.ForSnapshot(s)
		require.Len(t, got, 1)
		assert.Equal(t, "all", got[0].Type())
	})

	t.Run("stock snapshot with options data", func(t *testing.T) {
		s := &snapshot.Snapshot{
			Symbol:     "NVDA",
			AssetClass: snapshot.AssetStock,
			Flow:       &snapshot.FlowSummary{},
		}
		got := r.ForSnapshot(s)
		assert.Len(t, got, 3)
	})

	t.Run("stock snapshot without options skips options detectors", func(t *testing.T) {
		s := &snapshot.Snapshot{Symbol: "NVDA", AssetClass: snapshot.AssetStock}
		got := r.ForSnapshot(s)
		require.Len(t, got, 2)
		assert.Equal(t, "all", got[0].Type())
		assert.Equal(t, "stock_only", got[1].Type())
	})

	t.Run("ForAssetClass ignores options requirement", func(t *testing.T) {
		got := r.ForAssetClass(snapshot.AssetETF)
		assert.Len(t, got, 2)
	})
}
