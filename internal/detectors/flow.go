package detectors

import (
	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/detect"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// FlowMomentumLong trades in the direction of heavy institutional call
// buying: bullish flow bias with sweep pressure, block confirmation and
// price holding above short-term fair value. Requires options data.
type FlowMomentumLong struct {
	cfg *config.DetectorThresholds
}

// NewFlowMomentumLong builds the detector against the given thresholds.
func NewFlowMomentumLong(cfg *config.DetectorThresholds) *FlowMomentumLong {
	return &FlowMomentumLong{cfg: cfg}
}

func (d *FlowMomentumLong) Type() string                { return "flow_momentum_long" }
func (d *FlowMomentumLong) Direction() detect.Direction { return detect.Long }
func (d *FlowMomentumLong) AssetClasses() []snapshot.AssetClass {
	return []snapshot.AssetClass{snapshot.AssetStock, snapshot.AssetETF}
}
func (d *FlowMomentumLong) RequiresOptionsData() bool { return true }

func (d *FlowMomentumLong) Gate(s *snapshot.Snapshot) detect.GateResult {
	t := detect.NewTrail()
	of := d.cfg.OptionsFlow

	if s.Flow == nil {
		t.Fail("flow_present", "flow summary unavailable")
		return t.Result()
	}
	t.Check("flow_present", true, "present", nil, "flow summary available")

	if !t.Check("flow_bias", s.Flow.Bias == snapshot.FlowBullish, string(s.Flow.Bias), string(snapshot.FlowBullish),
		"flow bias %s, need bullish", s.Flow.Bias) {
		return t.Result()
	}

	score := s.Flow.FlowScore
	if !score.Valid {
		t.Fail("flow_score", "flow score unavailable")
		return t.Result()
	}
	if !t.Check("flow_score", score.Value >= of.FlowScoreMin, score.Value, of.FlowScoreMin,
		"flow score %.0f, need >= %.0f", score.Value, of.FlowScoreMin) {
		return t.Result()
	}

	if !t.Check("sweep_pressure", s.Flow.SweepCount >= of.SweepCountMin, s.Flow.SweepCount, of.SweepCountMin,
		"%d sweeps, need >= %d", s.Flow.SweepCount, of.SweepCountMin) {
		return t.Result()
	}

	if !t.Check("block_confirmation", s.Flow.BlockCount >= of.BlockCountMin, s.Flow.BlockCount, of.BlockCountMin,
		"%d blocks, need >= %d", s.Flow.BlockCount, of.BlockCountMin) {
		return t.Result()
	}

	// Price confirmation: above VWAP when available, above EMA9 otherwise.
	dist := s.VWAPDistance()
	switch {
	case dist.Valid:
		if !t.Check("price_confirmation", dist.Value > 0, dist.Value, 0.0,
			"price %.2f%% vs VWAP, need above", dist.Value) {
			return t.Result()
		}
	case s.Price.Valid && s.EMA9.Valid:
		if !t.Check("price_confirmation", s.Price.Value > s.EMA9.Value,
			s.Price.Value, s.EMA9.Value,
			"price %.2f vs EMA9 %.2f, need above", s.Price.Value, s.EMA9.Value) {
			return t.Result()
		}
	default:
		t.Fail("price_confirmation", "no VWAP or EMA reference available")
		return t.Result()
	}

	return t.Result()
}

func (d *FlowMomentumLong) Factors() []detect.Factor {
	return []detect.Factor{
		{Name: "flow_score_strength", Weight: 0.30, Evaluate: func(s *snapshot.Snapshot) float64 {
			if s.Flow == nil || !s.Flow.FlowScore.Valid {
				return neutralScore
			}
			fs := s.Flow.FlowScore.Value
			switch {
			case fs >= 90:
				return 95
			case fs >= 80:
				return 88
			case fs >= 70:
				return 78
			case fs >= 60:
				return 65
			default:
				return neutralScore
			}
		}},
		{Name: "sweep_intensity", Weight: 0.20, Evaluate: func(s *snapshot.Snapshot) float64 {
			if s.Flow == nil {
				return neutralScore
			}
			switch {
			case s.Flow.SweepCount >= 8:
				return 95
			case s.Flow.SweepCount >= 5:
				return 85
			case s.Flow.SweepCount >= 3:
				return 72
			case s.Flow.SweepCount >= 2:
				return 60
			default:
				return neutralScore
			}
		}},
		{Name: "block_confirmation", Weight: 0.15, Evaluate: func(s *snapshot.Snapshot) float64 {
			if s.Flow == nil {
				return neutralScore
			}
			switch {
			case s.Flow.BlockCount >= 4:
				return 90
			case s.Flow.BlockCount >= 2:
				return 75
			case s.Flow.BlockCount >= 1:
				return 60
			default:
				return neutralScore
			}
		}},
		{Name: "buy_pressure", Weight: 0.15, Evaluate: func(s *snapshot.Snapshot) float64 {
			if s.Flow == nil || !s.Flow.BuyPressureRatio.Valid {
				return neutralScore
			}
			bp := s.Flow.BuyPressureRatio.Value
			switch {
			case bp >= 0.8:
				return 92
			case bp >= 0.65:
				return 78
			case bp >= 0.55:
				return 62
			default:
				return 40
			}
		}},
		{Name: "price_confirmation", Weight: 0.20, Evaluate: func(s *snapshot.Snapshot) float64 {
			dist := s.VWAPDistance()
			if dist.Valid {
				switch {
				case dist.Value >= 1.0:
					return 88
				case dist.Value > 0:
					return 72
				default:
					return 35
				}
			}
			if s.Price.Valid && s.EMA9.Valid {
				if s.Price.Value > s.EMA9.Value {
					return 68
				}
				return 38
			}
			return neutralScore
		}},
	}
}
