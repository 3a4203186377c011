package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// squeezeSnapshot resolves a tight compression upward: ATR 0.9% of price,
// patient candle set, price over EMA9 with RSI 57 on 1.8x volume.
func squeezeSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Symbol:        "COIN",
		Timestamp:     testTime,
		Price:         snapshot.F(200),
		RelVolume:     snapshot.F(1.8),
		RSI14:         snapshot.F(57),
		EMA9:          snapshot.F(198),
		ATR:           snapshot.F(1.8),
		PatientCandle: snapshot.B(true),
		Regime:        snapshot.RegimeRanging,
		Session:       snapshot.Session{IsRegularHours: snapshot.B(true)},
	}
}

func TestSqueezeBreakoutGate(t *testing.T) {
	d := NewSqueezeBreakout(config.DefaultDetectorThresholds())

	result := d.Gate(squeezeSnapshot())
	assert.True(t, result.Passed, "%v", result.FailureReasons)

	t.Run("wide ATR means no compression", func(t *testing.T) {
		s := squeezeSnapshot()
		s.ATR = snapshot.F(3.0) // 1.5% of price
		result := d.Gate(s)
		assert.False(t, result.Passed)
	})

	t.Run("absent patient candle flag fails closed", func(t *testing.T) {
		s := squeezeSnapshot()
		s.PatientCandle = snapshot.Bool{}
		result := d.Gate(s)
		assert.False(t, result.Passed)
		require.NotEmpty(t, result.FailureReasons)
		assert.Contains(t, result.FailureReasons[0], "patient candle")
	})

	t.Run("explicit false patient candle fails", func(t *testing.T) {
		s := squeezeSnapshot()
		s.PatientCandle = snapshot.B(false)
		result := d.Gate(s)
		assert.False(t, result.Passed)
	})

	t.Run("downward resolution fails", func(t *testing.T) {
		s := squeezeSnapshot()
		s.RSI14 = snapshot.F(44)
		result := d.Gate(s)
		assert.False(t, result.Passed)
	})

	t.Run("no thrust volume fails", func(t *testing.T) {
		s := squeezeSnapshot()
		s.RelVolume = snapshot.F(1.2)
		result := d.Gate(s)
		assert.False(t, result.Passed)
	})
}

func TestSqueezeCompressionDepthFactor(t *testing.T) {
	d := NewSqueezeBreakout(config.DefaultDetectorThresholds())

	var depth func(*snapshot.Snapshot) float64
	for _, f := range d.Factors() {
		if f.Name == "compression_depth" {
			depth = f.Evaluate
		}
	}
	require.NotNil(t, depth)

	tight := squeezeSnapshot()
	tight.ATR = snapshot.F(1.0) // 0.5% of price
	loose := squeezeSnapshot()
	loose.ATR = snapshot.F(2.2) // 1.1% of price

	assert.Greater(t, depth(tight), depth(loose), "tighter compression scores higher")
}
