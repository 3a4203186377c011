package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// breakoutSnapshot passes every MomentumBreakoutLong gate: price above VWAP,
// rising EMA stack, RSI 62, 1.6x volume, trending_up regime.
func breakoutSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Symbol:          "NVDA",
		AssetClass:      snapshot.AssetStock,
		Timestamp:       testTime,
		Price:           snapshot.F(120),
		RelVolume:       snapshot.F(1.6),
		RSI14:           snapshot.F(62),
		VWAPDistancePct: snapshot.F(0.6),
		EMA9:            snapshot.F(118),
		EMA21:           snapshot.F(116),
		ATR:             snapshot.F(2.5),
		Regime:          snapshot.RegimeTrendingUp,
		Session:         snapshot.Session{IsRegularHours: snapshot.B(true)},
	}
}

func TestMomentumBreakoutLongGate(t *testing.T) {
	d := NewMomentumBreakoutLong(config.DefaultDetectorThresholds())

	result := d.Gate(breakoutSnapshot())
	assert.True(t, result.Passed, "%v", result.FailureReasons)

	t.Run("broken EMA stack fails", func(t *testing.T) {
		s := breakoutSnapshot()
		s.EMA9 = snapshot.F(115) // below EMA21
		result := d.Gate(s)
		assert.False(t, result.Passed)
	})

	t.Run("blown-out RSI fails the band", func(t *testing.T) {
		s := breakoutSnapshot()
		s.RSI14 = snapshot.F(82)
		result := d.Gate(s)
		assert.False(t, result.Passed)
	})

	t.Run("thin volume fails", func(t *testing.T) {
		s := breakoutSnapshot()
		s.RelVolume = snapshot.F(1.1)
		result := d.Gate(s)
		assert.False(t, result.Passed)
	})

	t.Run("trending_down blocks long continuation outright", func(t *testing.T) {
		s := breakoutSnapshot()
		s.Regime = snapshot.RegimeTrendingDown
		result := d.Gate(s)
		assert.False(t, result.Passed)
		require.NotEmpty(t, result.FailureReasons)
		assert.Contains(t, result.FailureReasons[0], "trending_down")
	})

	t.Run("ranging demands genuine breakout volume", func(t *testing.T) {
		s := breakoutSnapshot()
		s.Regime = snapshot.RegimeRanging
		result := d.Gate(s)
		assert.False(t, result.Passed, "1.6x is not breakout volume inside a range")

		s.RelVolume = snapshot.F(2.4)
		result = d.Gate(s)
		assert.True(t, result.Passed, "%v", result.FailureReasons)
	})

	t.Run("unknown regime is skipped", func(t *testing.T) {
		s := breakoutSnapshot()
		s.Regime = snapshot.RegimeUnknown
		result := d.Gate(s)
		assert.True(t, result.Passed, "%v", result.FailureReasons)
	})

	t.Run("heavy bearish flow vetoes", func(t *testing.T) {
		s := breakoutSnapshot()
		s.Flow = &snapshot.FlowSummary{Bias: snapshot.FlowBearish, BlockCount: 4}
		result := d.Gate(s)
		assert.False(t, result.Passed)
	})
}

func TestMomentumBreakdownShortGate(t *testing.T) {
	d := NewMomentumBreakdownShort(config.DefaultDetectorThresholds())

	s := &snapshot.Snapshot{
		Symbol:          "NVDA",
		Timestamp:       testTime,
		Price:           snapshot.F(112),
		RelVolume:       snapshot.F(1.8),
		RSI14:           snapshot.F(38),
		VWAPDistancePct: snapshot.F(-0.7),
		EMA9:            snapshot.F(114),
		EMA21:           snapshot.F(116),
		ATR:             snapshot.F(2.5),
		Regime:          snapshot.RegimeTrendingDown,
		Session:         snapshot.Session{IsRegularHours: snapshot.B(true)},
	}

	result := d.Gate(s)
	assert.True(t, result.Passed, "%v", result.FailureReasons)

	t.Run("trending_up blocks short continuation", func(t *testing.T) {
		up := *s
		up.Regime = snapshot.RegimeTrendingUp
		result := d.Gate(&up)
		assert.False(t, result.Passed)
	})

	t.Run("RSI below the floor is already washed out", func(t *testing.T) {
		washed := *s
		washed.RSI14 = snapshot.F(18)
		result := d.Gate(&washed)
		assert.False(t, result.Passed)
	})
}

func TestMomentumFactorsFavorTrendAndVolume(t *testing.T) {
	d := NewMomentumBreakoutLong(config.DefaultDetectorThresholds())
	s := breakoutSnapshot()

	scores := map[string]float64{}
	for _, f := range d.Factors() {
		scores[f.Name] = f.Evaluate(s)
	}

	assert.Equal(t, 95.0, scores["trend_regime_fit"])
	assert.Equal(t, 70.0, scores["volume_expansion"])
	assert.Equal(t, 80.0, scores["vwap_hold"])
	// EMA spread of 2 over ATR 2.5 = 0.8 ATRs.
	assert.Equal(t, 80.0, scores["ema_separation"])
	// No flow read scores neutral.
	assert.Equal(t, 50.0, scores["flow_alignment"])
}
