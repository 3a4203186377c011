package detectors

import (
	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/detect"
	"github.com/edgescan/edgescan/internal/session"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// MeanReversionShort is the overbought mirror of MeanReversionLong: price
// stretched above VWAP and the 21 EMA with an elevated RSI, faded back down.
type MeanReversionShort struct {
	cfg *config.DetectorThresholds
}

// NewMeanReversionShort builds the detector against the given thresholds.
func NewMeanReversionShort(cfg *config.DetectorThresholds) *MeanReversionShort {
	return &MeanReversionShort{cfg: cfg}
}

func (d *MeanReversionShort) Type() string                        { return "mean_reversion_short" }
func (d *MeanReversionShort) Direction() detect.Direction         { return detect.Short }
func (d *MeanReversionShort) AssetClasses() []snapshot.AssetClass { return nil }
func (d *MeanReversionShort) RequiresOptionsData() bool           { return false }

func (d *MeanReversionShort) Gate(s *snapshot.Snapshot) detect.GateResult {
	t := detect.NewTrail()
	mr := d.cfg.MeanReversion
	mode := session.Classify(s)

	overbought := mr.RSIOverboughtRTH
	if mode == session.Weekend {
		overbought = mr.RSIOverboughtWknd
	}
	if !s.RSI14.Valid {
		t.Fail("rsi_overbought", "RSI(14) unavailable")
		return t.Result()
	}
	if !t.Check("rsi_overbought", s.RSI14.Value > overbought, s.RSI14.Value, overbought,
		"RSI %.1f > %.1f (%s)", s.RSI14.Value, overbought, mode) {
		return t.Result()
	}

	dist := s.VWAPDistance()
	switch {
	case mode == session.RegularHours && !dist.Valid:
		t.Fail("vwap_stretch", "VWAP distance unavailable in regular hours")
		return t.Result()
	case mode == session.Weekend && !dist.Valid:
		t.Skip("vwap_stretch", "VWAP unavailable on weekend, relying on RSI and pattern flags")
	default:
		stretch := mr.VWAPStretchRTHPct
		if mode == session.Weekend {
			stretch = mr.VWAPStretchWkndPct
		}
		if !t.Check("vwap_stretch", dist.Value >= stretch, dist.Value, stretch,
			"price %.2f%% vs VWAP, need >= %.2f%%", dist.Value, stretch) {
			return t.Result()
		}
	}

	atrStretch := s.ATRStretchAboveEMA21()
	if !atrStretch.Valid {
		t.Fail("atr_stretch", "ATR stretch unavailable (missing or degenerate price/EMA21/ATR)")
		return t.Result()
	}
	if !t.Check("atr_stretch", atrStretch.Value >= mr.ATRStretchMin, atrStretch.Value, mr.ATRStretchMin,
		"%.2fx ATR above EMA21, need >= %.2fx", atrStretch.Value, mr.ATRStretchMin) {
		return t.Result()
	}

	// Graduated trending_up veto, mirroring the long side: blown-out
	// extension above both EMAs without an extreme RSI blocks, otherwise the
	// counter-trend RSI bar tightens.
	if s.Regime == snapshot.RegimeTrendingUp {
		counterTrend := 100 - mr.RSICounterTrend
		d9 := s.DistanceBelowEMAPct(s.EMA9)
		d21 := s.DistanceBelowEMAPct(s.EMA21)
		farAboveBoth := d9.Valid && d21.Valid &&
			-d9.Value > mr.EMADistanceVetoPct && -d21.Value > mr.EMADistanceVetoPct
		extreme := s.RSI14.Value > mr.RSIExtremeOverbought
		if farAboveBoth && !extreme {
			t.Check("regime_veto", false,
				map[string]interface{}{"ema9_dist": -d9.Value, "ema21_dist": -d21.Value, "rsi": s.RSI14.Value},
				mr.EMADistanceVetoPct,
				"trending_up: %.1f%%/%.1f%% above EMAs without extreme RSI %.1f", -d9.Value, -d21.Value, s.RSI14.Value)
			return t.Result()
		}
		if !t.Check("regime_veto", s.RSI14.Value > counterTrend || extreme, s.RSI14.Value, counterTrend,
			"trending_up requires RSI %.1f > %.1f", s.RSI14.Value, counterTrend) {
			return t.Result()
		}
	} else if s.Regime == snapshot.RegimeUnknown {
		t.Skip("regime_veto", "market regime unavailable")
	} else {
		t.Check("regime_veto", true, string(s.Regime), nil, "regime %s carries no veto", s.Regime)
	}

	if !bullishFlowVeto(t, s.Flow, d.cfg.FlowVeto) {
		return t.Result()
	}

	return t.Result()
}

func (d *MeanReversionShort) Factors() []detect.Factor {
	mr := d.cfg.MeanReversion
	return []detect.Factor{
		{Name: "rsi_overbought_depth", Weight: 0.25, Evaluate: func(s *snapshot.Snapshot) float64 {
			if !s.RSI14.Valid {
				return neutralScore
			}
			rsi := s.RSI14.Value
			switch {
			case rsi >= mr.RSIExtremeOverbought:
				return 95
			case rsi > 75:
				return 85
			case rsi > 72:
				return 70
			case rsi > mr.RSIOverboughtRTH:
				return 60
			default:
				return neutralScore
			}
		}},
		{Name: "vwap_stretch", Weight: 0.15, Evaluate: func(s *snapshot.Snapshot) float64 {
			dist := s.VWAPDistance()
			if !dist.Valid {
				return neutralScore
			}
			above := dist.Value
			switch {
			case above >= 1.5:
				return 95
			case above >= 1.0:
				return 85
			case above >= 0.8:
				return 75
			case above >= 0.5:
				return 65
			default:
				return neutralScore
			}
		}},
		{Name: "atr_stretch", Weight: 0.20, Evaluate: func(s *snapshot.Snapshot) float64 {
			stretch := s.ATRStretchAboveEMA21()
			if !stretch.Valid {
				return neutralScore
			}
			switch {
			case stretch.Value >= 3.0:
				return 95
			case stretch.Value >= 2.5:
				return 88
			case stretch.Value >= 2.0:
				return 80
			case stretch.Value >= 1.5:
				return 65
			default:
				return neutralScore
			}
		}},
		{Name: "relative_volume", Weight: 0.10, Evaluate: relVolumeScore},
		{Name: "regime_quality", Weight: 0.15, Evaluate: func(s *snapshot.Snapshot) float64 {
			return regimeTableScore(s, map[snapshot.Regime]float64{
				snapshot.RegimeRanging:      90,
				snapshot.RegimeChoppy:       75,
				snapshot.RegimeTrendingDown: 60,
				snapshot.RegimeVolatile:     55,
				snapshot.RegimeTrendingUp:   25,
			})
		}},
		{Name: "bearish_divergence", Weight: 0.05, Evaluate: func(s *snapshot.Snapshot) float64 {
			if s.Divergence == nil || !s.Divergence.Confidence.Valid {
				return neutralScore
			}
			if s.Divergence.Type != "bearish" {
				return 40
			}
			score := 50 + s.Divergence.Confidence.Value/2
			if score > 100 {
				score = 100
			}
			return score
		}},
		{Name: "rsi_turn", Weight: 0.10, Evaluate: func(s *snapshot.Snapshot) float64 {
			delta := s.RSIDelta()
			if !delta.Valid {
				return neutralScore
			}
			if delta.Value < 0 && s.Prev.RSI14.Value > mr.RSIOverboughtRTH {
				return 90
			}
			if delta.Value < 0 {
				return 65
			}
			return 35
		}},
	}
}
