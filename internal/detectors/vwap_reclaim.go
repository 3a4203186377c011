package detectors

import (
	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/detect"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// VWAPReclaimLong looks for the transition tick where price crosses back
// above VWAP after trading below it, with RSI recovering through the
// midband. Requires the prior snapshot; without it the gate fails closed.
type VWAPReclaimLong struct {
	cfg *config.DetectorThresholds
}

// NewVWAPReclaimLong builds the detector against the given thresholds.
func NewVWAPReclaimLong(cfg *config.DetectorThresholds) *VWAPReclaimLong {
	return &VWAPReclaimLong{cfg: cfg}
}

func (d *VWAPReclaimLong) Type() string                        { return "vwap_reclaim_long" }
func (d *VWAPReclaimLong) Direction() detect.Direction         { return detect.Long }
func (d *VWAPReclaimLong) AssetClasses() []snapshot.AssetClass { return nil }
func (d *VWAPReclaimLong) RequiresOptionsData() bool           { return false }

func (d *VWAPReclaimLong) Gate(s *snapshot.Snapshot) detect.GateResult {
	t := detect.NewTrail()
	rc := d.cfg.Reclaim

	// 1. Momentum delta detector: no prior tick, no reclaim to observe.
	if s.Prev == nil {
		t.Fail("prior_tick", "prior snapshot unavailable")
		return t.Result()
	}
	t.Check("prior_tick", true, "present", nil, "prior snapshot available")

	// 2. Prior tick meaningfully below VWAP.
	prevDist := s.Prev.VWAPDistance()
	if !prevDist.Valid {
		t.Fail("prior_below_vwap", "prior VWAP distance unavailable")
		return t.Result()
	}
	if !t.Check("prior_below_vwap", prevDist.Value <= -rc.PriorBelowVWAPPct, prevDist.Value, -rc.PriorBelowVWAPPct,
		"prior tick %.2f%% vs VWAP, need <= -%.2f%%", prevDist.Value, rc.PriorBelowVWAPPct) {
		return t.Result()
	}

	// 3. Current tick reclaimed above VWAP.
	dist := s.VWAPDistance()
	if !dist.Valid {
		t.Fail("vwap_reclaim", "VWAP distance unavailable")
		return t.Result()
	}
	if !t.Check("vwap_reclaim", dist.Value > 0, dist.Value, 0.0,
		"price %.2f%% vs VWAP, need above", dist.Value) {
		return t.Result()
	}

	// 4. RSI recovering through the midband.
	delta := s.RSIDelta()
	if !delta.Valid {
		t.Fail("rsi_recovery", "RSI delta unavailable")
		return t.Result()
	}
	recovering := delta.Value > 0 && s.RSI14.Value >= rc.RSIMidband
	if !t.Check("rsi_recovery", recovering,
		map[string]interface{}{"rsi": s.RSI14.Value, "delta": delta.Value}, rc.RSIMidband,
		"RSI %.1f (delta %+.1f) must be rising through %.0f", s.RSI14.Value, delta.Value, rc.RSIMidband) {
		return t.Result()
	}

	if !bearishFlowVeto(t, s.Flow, d.cfg.FlowVeto) {
		return t.Result()
	}

	return t.Result()
}

func (d *VWAPReclaimLong) Factors() []detect.Factor {
	return []detect.Factor{
		{Name: "reclaim_strength", Weight: 0.30, Evaluate: func(s *snapshot.Snapshot) float64 {
			dist := s.VWAPDistance()
			if !dist.Valid {
				return neutralScore
			}
			switch {
			case dist.Value >= 0.8:
				return 90
			case dist.Value >= 0.4:
				return 80
			case dist.Value > 0:
				return 65
			default:
				return 35
			}
		}},
		{Name: "prior_stretch", Weight: 0.15, Evaluate: func(s *snapshot.Snapshot) float64 {
			// The deeper the prior flush, the springier the reclaim.
			if s.Prev == nil {
				return neutralScore
			}
			prev := s.Prev.VWAPDistance()
			if !prev.Valid {
				return neutralScore
			}
			below := -prev.Value
			switch {
			case below >= 1.5:
				return 90
			case below >= 1.0:
				return 80
			case below >= 0.5:
				return 68
			default:
				return 55
			}
		}},
		{Name: "rsi_recovery", Weight: 0.25, Evaluate: func(s *snapshot.Snapshot) float64 {
			delta := s.RSIDelta()
			if !delta.Valid {
				return neutralScore
			}
			switch {
			case delta.Value >= 8:
				return 92
			case delta.Value >= 4:
				return 80
			case delta.Value > 0:
				return 65
			default:
				return 30
			}
		}},
		{Name: "relative_volume", Weight: 0.15, Evaluate: relVolumeScore},
		{Name: "regime_quality", Weight: 0.15, Evaluate: func(s *snapshot.Snapshot) float64 {
			return regimeTableScore(s, map[snapshot.Regime]float64{
				snapshot.RegimeRanging:      80,
				snapshot.RegimeTrendingUp:   85,
				snapshot.RegimeChoppy:       60,
				snapshot.RegimeVolatile:     50,
				snapshot.RegimeTrendingDown: 35,
			})
		}},
	}
}
