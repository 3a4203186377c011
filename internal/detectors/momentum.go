package detectors

import (
	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/detect"
	"github.com/edgescan/edgescan/internal/session"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// MomentumBreakoutLong looks for trend continuation: price holding above
// VWAP and a rising EMA stack, with volume expansion confirming the move.
type MomentumBreakoutLong struct {
	cfg *config.DetectorThresholds
}

// NewMomentumBreakoutLong builds the detector against the given thresholds.
func NewMomentumBreakoutLong(cfg *config.DetectorThresholds) *MomentumBreakoutLong {
	return &MomentumBreakoutLong{cfg: cfg}
}

func (d *MomentumBreakoutLong) Type() string                        { return "momentum_breakout_long" }
func (d *MomentumBreakoutLong) Direction() detect.Direction         { return detect.Long }
func (d *MomentumBreakoutLong) AssetClasses() []snapshot.AssetClass { return nil }
func (d *MomentumBreakoutLong) RequiresOptionsData() bool           { return false }

func (d *MomentumBreakoutLong) Gate(s *snapshot.Snapshot) detect.GateResult {
	t := detect.NewTrail()
	mo := d.cfg.Momentum
	mode := session.Classify(s)

	// 1. Price above VWAP. Mandatory in regular hours, skipped on weekends
	// without VWAP data.
	dist := s.VWAPDistance()
	switch {
	case mode == session.RegularHours && !dist.Valid:
		t.Fail("vwap_hold", "VWAP distance unavailable in regular hours")
		return t.Result()
	case mode == session.Weekend && !dist.Valid:
		t.Skip("vwap_hold", "VWAP unavailable on weekend")
	default:
		if !t.Check("vwap_hold", dist.Value > 0, dist.Value, 0.0,
			"price %.2f%% vs VWAP, need above", dist.Value) {
			return t.Result()
		}
	}

	// 2. Rising EMA stack.
	if !s.Price.Valid || !s.EMA9.Valid || !s.EMA21.Valid {
		t.Fail("ema_stack", "price or EMA data unavailable")
		return t.Result()
	}
	stacked := s.EMA9.Value > s.EMA21.Value && s.Price.Value > s.EMA9.Value
	if !t.Check("ema_stack", stacked,
		map[string]interface{}{"price": s.Price.Value, "ema9": s.EMA9.Value, "ema21": s.EMA21.Value}, nil,
		"price %.2f > EMA9 %.2f > EMA21 %.2f required", s.Price.Value, s.EMA9.Value, s.EMA21.Value) {
		return t.Result()
	}

	// 3. RSI in the continuation band: strong but not blown out.
	if !s.RSI14.Valid {
		t.Fail("rsi_band", "RSI(14) unavailable")
		return t.Result()
	}
	inBand := s.RSI14.Value >= mo.RSIFloorLong && s.RSI14.Value <= mo.RSICeilingLong
	if !t.Check("rsi_band", inBand, s.RSI14.Value,
		map[string]interface{}{"floor": mo.RSIFloorLong, "ceiling": mo.RSICeilingLong},
		"RSI %.1f outside [%.0f, %.0f]", s.RSI14.Value, mo.RSIFloorLong, mo.RSICeilingLong) {
		return t.Result()
	}

	// 4. Volume expansion.
	if !s.RelVolume.Valid {
		t.Fail("volume_expansion", "relative volume unavailable")
		return t.Result()
	}
	if !t.Check("volume_expansion", s.RelVolume.Value >= mo.RelVolumeMin, s.RelVolume.Value, mo.RelVolumeMin,
		"relative volume %.2fx, need >= %.2fx", s.RelVolume.Value, mo.RelVolumeMin) {
		return t.Result()
	}

	// 5. Regime check with graduation: range-bound regimes demand a genuine
	// expansion bar; a trending_down tape blocks long continuation outright.
	switch s.Regime {
	case snapshot.RegimeTrendingDown:
		t.Check("regime_veto", false, string(s.Regime), nil, "no long continuation inside trending_down")
		return t.Result()
	case snapshot.RegimeRanging, snapshot.RegimeChoppy:
		if !t.Check("regime_veto", s.RelVolume.Value >= 2.0, s.RelVolume.Value, 2.0,
			"%s regime requires breakout volume >= 2.0x, got %.2fx", s.Regime, s.RelVolume.Value) {
			return t.Result()
		}
	case snapshot.RegimeUnknown:
		t.Skip("regime_veto", "market regime unavailable")
	default:
		t.Check("regime_veto", true, string(s.Regime), nil, "regime %s carries no veto", s.Regime)
	}

	if !bearishFlowVeto(t, s.Flow, d.cfg.FlowVeto) {
		return t.Result()
	}

	return t.Result()
}

func (d *MomentumBreakoutLong) Factors() []detect.Factor {
	mo := d.cfg.Momentum
	return []detect.Factor{
		{Name: "trend_regime_fit", Weight: 0.25, Evaluate: func(s *snapshot.Snapshot) float64 {
			return regimeTableScore(s, map[snapshot.Regime]float64{
				snapshot.RegimeTrendingUp:   95,
				snapshot.RegimeVolatile:     65,
				snapshot.RegimeRanging:      45,
				snapshot.RegimeChoppy:       40,
				snapshot.RegimeTrendingDown: 15,
			})
		}},
		{Name: "volume_expansion", Weight: 0.25, Evaluate: relVolumeScore},
		{Name: "vwap_hold", Weight: 0.15, Evaluate: func(s *snapshot.Snapshot) float64 {
			dist := s.VWAPDistance()
			if !dist.Valid {
				return neutralScore
			}
			switch {
			case dist.Value >= 1.0:
				return 90
			case dist.Value >= 0.5:
				return 80
			case dist.Value > 0:
				return 65
			default:
				return 30
			}
		}},
		{Name: "ema_separation", Weight: 0.20, Evaluate: func(s *snapshot.Snapshot) float64 {
			if !s.EMA9.Valid || !s.EMA21.Valid || !s.ATR.Valid || s.ATR.Value <= 0 {
				return neutralScore
			}
			sep := (s.EMA9.Value - s.EMA21.Value) / s.ATR.Value
			switch {
			case sep >= 1.0:
				return 92
			case sep >= 0.5:
				return 80
			case sep >= mo.EMASpreadATRMin:
				return 65
			case sep > 0:
				return 55
			default:
				return 30
			}
		}},
		{Name: "flow_alignment", Weight: 0.15, Evaluate: func(s *snapshot.Snapshot) float64 {
			if s.Flow == nil {
				return neutralScore
			}
			switch s.Flow.Bias {
			case snapshot.FlowBullish:
				if s.Flow.FlowScore.Or(0) >= 70 {
					return 92
				}
				return 75
			case snapshot.FlowBearish:
				return 25
			default:
				return neutralScore
			}
		}},
	}
}

// MomentumBreakdownShort is the bearish mirror of MomentumBreakoutLong.
type MomentumBreakdownShort struct {
	cfg *config.DetectorThresholds
}

// NewMomentumBreakdownShort builds the detector against the given thresholds.
func NewMomentumBreakdownShort(cfg *config.DetectorThresholds) *MomentumBreakdownShort {
	return &MomentumBreakdownShort{cfg: cfg}
}

func (d *MomentumBreakdownShort) Type() string                        { return "momentum_breakdown_short" }
func (d *MomentumBreakdownShort) Direction() detect.Direction         { return detect.Short }
func (d *MomentumBreakdownShort) AssetClasses() []snapshot.AssetClass { return nil }
func (d *MomentumBreakdownShort) RequiresOptionsData() bool           { return false }

func (d *MomentumBreakdownShort) Gate(s *snapshot.Snapshot) detect.GateResult {
	t := detect.NewTrail()
	mo := d.cfg.Momentum
	mode := session.Classify(s)

	dist := s.VWAPDistance()
	switch {
	case mode == session.RegularHours && !dist.Valid:
		t.Fail("vwap_hold", "VWAP distance unavailable in regular hours")
		return t.Result()
	case mode == session.Weekend && !dist.Valid:
		t.Skip("vwap_hold", "VWAP unavailable on weekend")
	default:
		if !t.Check("vwap_hold", dist.Value < 0, dist.Value, 0.0,
			"price %.2f%% vs VWAP, need below", dist.Value) {
			return t.Result()
		}
	}

	if !s.Price.Valid || !s.EMA9.Valid || !s.EMA21.Valid {
		t.Fail("ema_stack", "price or EMA data unavailable")
		return t.Result()
	}
	stacked := s.EMA9.Value < s.EMA21.Value && s.Price.Value < s.EMA9.Value
	if !t.Check("ema_stack", stacked,
		map[string]interface{}{"price": s.Price.Value, "ema9": s.EMA9.Value, "ema21": s.EMA21.Value}, nil,
		"price %.2f < EMA9 %.2f < EMA21 %.2f required", s.Price.Value, s.EMA9.Value, s.EMA21.Value) {
		return t.Result()
	}

	if !s.RSI14.Valid {
		t.Fail("rsi_band", "RSI(14) unavailable")
		return t.Result()
	}
	inBand := s.RSI14.Value <= mo.RSICeilingShort && s.RSI14.Value >= mo.RSIFloorShort
	if !t.Check("rsi_band", inBand, s.RSI14.Value,
		map[string]interface{}{"floor": mo.RSIFloorShort, "ceiling": mo.RSICeilingShort},
		"RSI %.1f outside [%.0f, %.0f]", s.RSI14.Value, mo.RSIFloorShort, mo.RSICeilingShort) {
		return t.Result()
	}

	if !s.RelVolume.Valid {
		t.Fail("volume_expansion", "relative volume unavailable")
		return t.Result()
	}
	if !t.Check("volume_expansion", s.RelVolume.Value >= mo.RelVolumeMin, s.RelVolume.Value, mo.RelVolumeMin,
		"relative volume %.2fx, need >= %.2fx", s.RelVolume.Value, mo.RelVolumeMin) {
		return t.Result()
	}

	switch s.Regime {
	case snapshot.RegimeTrendingUp:
		t.Check("regime_veto", false, string(s.Regime), nil, "no short continuation inside trending_up")
		return t.Result()
	case snapshot.RegimeRanging, snapshot.RegimeChoppy:
		if !t.Check("regime_veto", s.RelVolume.Value >= 2.0, s.RelVolume.Value, 2.0,
			"%s regime requires breakdown volume >= 2.0x, got %.2fx", s.Regime, s.RelVolume.Value) {
			return t.Result()
		}
	case snapshot.RegimeUnknown:
		t.Skip("regime_veto", "market regime unavailable")
	default:
		t.Check("regime_veto", true, string(s.Regime), nil, "regime %s carries no veto", s.Regime)
	}

	if !bullishFlowVeto(t, s.Flow, d.cfg.FlowVeto) {
		return t.Result()
	}

	return t.Result()
}

func (d *MomentumBreakdownShort) Factors() []detect.Factor {
	mo := d.cfg.Momentum
	return []detect.Factor{
		{Name: "trend_regime_fit", Weight: 0.25, Evaluate: func(s *snapshot.Snapshot) float64 {
			return regimeTableScore(s, map[snapshot.Regime]float64{
				snapshot.RegimeTrendingDown: 95,
				snapshot.RegimeVolatile:     65,
				snapshot.RegimeRanging:      45,
				snapshot.RegimeChoppy:       40,
				snapshot.RegimeTrendingUp:   15,
			})
		}},
		{Name: "volume_expansion", Weight: 0.25, Evaluate: relVolumeScore},
		{Name: "vwap_hold", Weight: 0.15, Evaluate: func(s *snapshot.Snapshot) float64 {
			dist := s.VWAPDistance()
			if !dist.Valid {
				return neutralScore
			}
			switch {
			case dist.Value <= -1.0:
				return 90
			case dist.Value <= -0.5:
				return 80
			case dist.Value < 0:
				return 65
			default:
				return 30
			}
		}},
		{Name: "ema_separation", Weight: 0.20, Evaluate: func(s *snapshot.Snapshot) float64 {
			if !s.EMA9.Valid || !s.EMA21.Valid || !s.ATR.Valid || s.ATR.Value <= 0 {
				return neutralScore
			}
			sep := (s.EMA21.Value - s.EMA9.Value) / s.ATR.Value
			switch {
			case sep >= 1.0:
				return 92
			case sep >= 0.5:
				return 80
			case sep >= mo.EMASpreadATRMin:
				return 65
			case sep > 0:
				return 55
			default:
				return 30
			}
		}},
		{Name: "flow_alignment", Weight: 0.15, Evaluate: func(s *snapshot.Snapshot) float64 {
			if s.Flow == nil {
				return neutralScore
			}
			switch s.Flow.Bias {
			case snapshot.FlowBearish:
				if s.Flow.FlowScore.Or(0) >= 70 {
					return 92
				}
				return 75
			case snapshot.FlowBullish:
				return 25
			default:
				return neutralScore
			}
		}},
	}
}
