package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// reclaimSnapshot captures the transition tick: prior print 0.6% below VWAP
// with RSI 41, current print 0.3% above with RSI 48.
func reclaimSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Symbol:          "AMD",
		Timestamp:       testTime,
		Price:           snapshot.F(150),
		RSI14:           snapshot.F(48),
		VWAPDistancePct: snapshot.F(0.3),
		Regime:          snapshot.RegimeRanging,
		Session:         snapshot.Session{IsRegularHours: snapshot.B(true)},
		Prev: &snapshot.Snapshot{
			Symbol:          "AMD",
			RSI14:           snapshot.F(41),
			VWAPDistancePct: snapshot.F(-0.6),
		},
	}
}

func TestVWAPReclaimLongGate(t *testing.T) {
	d := NewVWAPReclaimLong(config.DefaultDetectorThresholds())

	result := d.Gate(reclaimSnapshot())
	assert.True(t, result.Passed, "%v", result.FailureReasons)

	t.Run("no prior tick fails closed", func(t *testing.T) {
		s := reclaimSnapshot()
		s.Prev = nil
		result := d.Gate(s)
		assert.False(t, result.Passed)
		require.NotEmpty(t, result.FailureReasons)
		assert.Contains(t, result.FailureReasons[0], "prior")
	})

	t.Run("prior tick barely below VWAP is noise", func(t *testing.T) {
		s := reclaimSnapshot()
		s.Prev.VWAPDistancePct = snapshot.F(-0.1)
		result := d.Gate(s)
		assert.False(t, result.Passed)
	})

	t.Run("still below VWAP is not a reclaim", func(t *testing.T) {
		s := reclaimSnapshot()
		s.VWAPDistancePct = snapshot.F(-0.05)
		result := d.Gate(s)
		assert.False(t, result.Passed)
	})

	t.Run("falling RSI fails the recovery check", func(t *testing.T) {
		s := reclaimSnapshot()
		s.RSI14 = snapshot.F(39)
		result := d.Gate(s)
		assert.False(t, result.Passed)
	})

	t.Run("RSI rising but below the midband fails", func(t *testing.T) {
		s := reclaimSnapshot()
		s.RSI14 = snapshot.F(43)
		s.Prev.RSI14 = snapshot.F(40)
		result := d.Gate(s)
		assert.False(t, result.Passed)
	})
}

func TestVWAPReclaimFactors(t *testing.T) {
	d := NewVWAPReclaimLong(config.DefaultDetectorThresholds())
	s := reclaimSnapshot()

	scores := map[string]float64{}
	for _, f := range d.Factors() {
		scores[f.Name] = f.Evaluate(s)
	}

	assert.Equal(t, 65.0, scores["reclaim_strength"]) // 0.3% above
	assert.Equal(t, 68.0, scores["prior_stretch"])    // 0.6% prior flush
	assert.Equal(t, 80.0, scores["rsi_recovery"])     // +7 RSI
	assert.Equal(t, 50.0, scores["relative_volume"])  // absent
}
