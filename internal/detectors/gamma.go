package detectors

import (
	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/detect"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// GammaSqueezeLong looks for price trading above the dealer gamma flip with
// headroom to the call wall and bullish flow feeding the squeeze. Requires
// options data.
type GammaSqueezeLong struct {
	cfg *config.DetectorThresholds
}

// NewGammaSqueezeLong builds the detector against the given thresholds.
func NewGammaSqueezeLong(cfg *config.DetectorThresholds) *GammaSqueezeLong {
	return &GammaSqueezeLong{cfg: cfg}
}

func (d *GammaSqueezeLong) Type() string                { return "gamma_squeeze_long" }
func (d *GammaSqueezeLong) Direction() detect.Direction { return detect.Long }
func (d *GammaSqueezeLong) AssetClasses() []snapshot.AssetClass {
	return []snapshot.AssetClass{snapshot.AssetStock, snapshot.AssetETF}
}
func (d *GammaSqueezeLong) RequiresOptionsData() bool { return true }

func (d *GammaSqueezeLong) Gate(s *snapshot.Snapshot) detect.GateResult {
	t := detect.NewTrail()
	of := d.cfg.OptionsFlow

	if s.Gamma == nil || !s.Gamma.FlipLevel.Valid || !s.Price.Valid {
		t.Fail("gamma_profile", "gamma flip level or price unavailable")
		return t.Result()
	}
	t.Check("gamma_profile", true, "present", nil, "gamma profile available")

	if !t.Check("above_flip", s.Price.Value > s.Gamma.FlipLevel.Value,
		s.Price.Value, s.Gamma.FlipLevel.Value,
		"price %.2f vs gamma flip %.2f, need above", s.Price.Value, s.Gamma.FlipLevel.Value) {
		return t.Result()
	}

	if !s.Gamma.CallWall.Valid || s.Price.Value <= 1e-9 {
		t.Fail("call_wall_headroom", "call wall unavailable")
		return t.Result()
	}
	headroom := (s.Gamma.CallWall.Value - s.Price.Value) / s.Price.Value * 100.0
	if !t.Check("call_wall_headroom", headroom >= of.CallWallRoomPct, headroom, of.CallWallRoomPct,
		"%.2f%% headroom to call wall, need >= %.2f%%", headroom, of.CallWallRoomPct) {
		return t.Result()
	}

	if s.Flow == nil {
		t.Fail("flow_confirmation", "flow summary unavailable")
		return t.Result()
	}
	if !t.Check("flow_confirmation", s.Flow.Bias == snapshot.FlowBullish,
		string(s.Flow.Bias), string(snapshot.FlowBullish),
		"flow bias %s, need bullish to feed the squeeze", s.Flow.Bias) {
		return t.Result()
	}

	return t.Result()
}

func (d *GammaSqueezeLong) Factors() []detect.Factor {
	of := d.cfg.OptionsFlow
	return []detect.Factor{
		{Name: "flip_distance", Weight: 0.30, Evaluate: func(s *snapshot.Snapshot) float64 {
			if s.Gamma == nil || !s.Gamma.FlipLevel.Valid || !s.Price.Valid || !s.ATR.Valid || s.ATR.Value <= 0 {
				return neutralScore
			}
			// Distance above the flip in ATRs: deep in positive gamma is a
			// steadier tailwind than hovering at the boundary.
			aboveATR := (s.Price.Value - s.Gamma.FlipLevel.Value) / s.ATR.Value
			switch {
			case aboveATR >= 2.0:
				return 90
			case aboveATR >= 1.0:
				return 80
			case aboveATR > 0:
				return 65
			default:
				return 30
			}
		}},
		{Name: "call_wall_headroom", Weight: 0.25, Evaluate: func(s *snapshot.Snapshot) float64 {
			if s.Gamma == nil || !s.Gamma.CallWall.Valid || !s.Price.Valid || s.Price.Value <= 1e-9 {
				return neutralScore
			}
			headroom := (s.Gamma.CallWall.Value - s.Price.Value) / s.Price.Value * 100.0
			switch {
			case headroom >= 5.0:
				return 92
			case headroom >= 3.0:
				return 82
			case headroom >= of.CallWallRoomPct:
				return 68
			default:
				return 35
			}
		}},
		{Name: "flow_score_strength", Weight: 0.25, Evaluate: func(s *snapshot.Snapshot) float64 {
			if s.Flow == nil || !s.Flow.FlowScore.Valid {
				return neutralScore
			}
			fs := s.Flow.FlowScore.Value
			switch {
			case fs >= 85:
				return 92
			case fs >= 70:
				return 80
			case fs >= 55:
				return 65
			default:
				return neutralScore
			}
		}},
		{Name: "sweep_intensity", Weight: 0.10, Evaluate: func(s *snapshot.Snapshot) float64 {
			if s.Flow == nil {
				return neutralScore
			}
			switch {
			case s.Flow.SweepCount >= 5:
				return 90
			case s.Flow.SweepCount >= 3:
				return 75
			case s.Flow.SweepCount >= 1:
				return 60
			default:
				return neutralScore
			}
		}},
		{Name: "regime_quality", Weight: 0.10, Evaluate: func(s *snapshot.Snapshot) float64 {
			return regimeTableScore(s, map[snapshot.Regime]float64{
				snapshot.RegimeTrendingUp:   90,
				snapshot.RegimeVolatile:     70,
				snapshot.RegimeRanging:      60,
				snapshot.RegimeChoppy:       50,
				snapshot.RegimeTrendingDown: 30,
			})
		}},
	}
}
