package detectors

import (
	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/detect"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// SqueezeBreakout looks for volatility compression (small ATR relative to
// price plus the upstream patient-candle flag) resolving upward on volume.
type SqueezeBreakout struct {
	cfg *config.DetectorThresholds
}

// NewSqueezeBreakout builds the detector against the given thresholds.
func NewSqueezeBreakout(cfg *config.DetectorThresholds) *SqueezeBreakout {
	return &SqueezeBreakout{cfg: cfg}
}

func (d *SqueezeBreakout) Type() string                        { return "squeeze_breakout" }
func (d *SqueezeBreakout) Direction() detect.Direction         { return detect.Long }
func (d *SqueezeBreakout) AssetClasses() []snapshot.AssetClass { return nil }
func (d *SqueezeBreakout) RequiresOptionsData() bool           { return false }

func (d *SqueezeBreakout) Gate(s *snapshot.Snapshot) detect.GateResult {
	t := detect.NewTrail()
	sq := d.cfg.Squeeze

	// 1. Volatility compression.
	if !s.ATR.Valid || !s.Price.Valid || s.ATR.Value <= 0 || s.Price.Value <= 1e-9 {
		t.Fail("compression", "ATR or price unavailable")
		return t.Result()
	}
	atrPct := s.ATR.Value / s.Price.Value * 100.0
	if !t.Check("compression", atrPct <= sq.ATRPricePctMax, atrPct, sq.ATRPricePctMax,
		"ATR %.2f%% of price, need <= %.2f%%", atrPct, sq.ATRPricePctMax) {
		return t.Result()
	}

	// 2. Patient-candle flag from the upstream pattern pipeline.
	if !s.PatientCandle.Valid {
		t.Fail("patient_candle", "patient candle flag unavailable")
		return t.Result()
	}
	if !t.Check("patient_candle", s.PatientCandle.Value, s.PatientCandle.Value, true,
		"patient candle flag %t", s.PatientCandle.Value) {
		return t.Result()
	}

	// 3. Resolution upward.
	if !s.Price.Valid || !s.EMA9.Valid || !s.RSI14.Valid {
		t.Fail("upward_resolution", "price, EMA9 or RSI unavailable")
		return t.Result()
	}
	resolving := s.Price.Value > s.EMA9.Value && s.RSI14.Value > 50
	if !t.Check("upward_resolution", resolving,
		map[string]interface{}{"price": s.Price.Value, "ema9": s.EMA9.Value, "rsi": s.RSI14.Value}, nil,
		"need price %.2f > EMA9 %.2f and RSI %.1f > 50", s.Price.Value, s.EMA9.Value, s.RSI14.Value) {
		return t.Result()
	}

	// 4. Volume thrust on the resolution bar.
	if !s.RelVolume.Valid {
		t.Fail("volume_thrust", "relative volume unavailable")
		return t.Result()
	}
	if !t.Check("volume_thrust", s.RelVolume.Value >= sq.RelVolumeMin, s.RelVolume.Value, sq.RelVolumeMin,
		"relative volume %.2fx, need >= %.2fx", s.RelVolume.Value, sq.RelVolumeMin) {
		return t.Result()
	}

	if !bearishFlowVeto(t, s.Flow, d.cfg.FlowVeto) {
		return t.Result()
	}

	return t.Result()
}

func (d *SqueezeBreakout) Factors() []detect.Factor {
	sq := d.cfg.Squeeze
	return []detect.Factor{
		{Name: "compression_depth", Weight: 0.30, Evaluate: func(s *snapshot.Snapshot) float64 {
			if !s.ATR.Valid || !s.Price.Valid || s.Price.Value <= 1e-9 || s.ATR.Value <= 0 {
				return neutralScore
			}
			atrPct := s.ATR.Value / s.Price.Value * 100.0
			switch {
			case atrPct <= sq.ATRPricePctMax*0.5:
				return 92
			case atrPct <= sq.ATRPricePctMax*0.75:
				return 80
			case atrPct <= sq.ATRPricePctMax:
				return 65
			default:
				return 40
			}
		}},
		{Name: "volume_thrust", Weight: 0.30, Evaluate: relVolumeScore},
		{Name: "rsi_momentum", Weight: 0.20, Evaluate: func(s *snapshot.Snapshot) float64 {
			delta := s.RSIDelta()
			if !delta.Valid {
				return neutralScore
			}
			switch {
			case delta.Value >= 6:
				return 90
			case delta.Value > 0:
				return 70
			default:
				return 35
			}
		}},
		{Name: "regime_quality", Weight: 0.20, Evaluate: func(s *snapshot.Snapshot) float64 {
			// Squeezes resolve best out of quiet tape; volatile regimes have
			// already spent the compression.
			return regimeTableScore(s, map[snapshot.Regime]float64{
				snapshot.RegimeRanging:      85,
				snapshot.RegimeChoppy:       80,
				snapshot.RegimeTrendingUp:   70,
				snapshot.RegimeVolatile:     40,
				snapshot.RegimeTrendingDown: 30,
			})
		}},
	}
}
