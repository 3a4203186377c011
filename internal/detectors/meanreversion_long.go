package detectors

import (
	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/detect"
	"github.com/edgescan/edgescan/internal/session"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// MeanReversionLong looks for oversold stretch below VWAP and the 21 EMA,
// bought back toward fair value. Session mode selects the strict (regular
// hours) or relaxed (weekend) threshold set.
type MeanReversionLong struct {
	cfg *config.DetectorThresholds
}

// NewMeanReversionLong builds the detector against the given thresholds.
func NewMeanReversionLong(cfg *config.DetectorThresholds) *MeanReversionLong {
	return &MeanReversionLong{cfg: cfg}
}

func (d *MeanReversionLong) Type() string                           { return "mean_reversion_long" }
func (d *MeanReversionLong) Direction() detect.Direction            { return detect.Long }
func (d *MeanReversionLong) AssetClasses() []snapshot.AssetClass    { return nil }
func (d *MeanReversionLong) RequiresOptionsData() bool              { return false }

// Gate evaluates the hard conditions in order, short-circuiting on the first
// failure.
func (d *MeanReversionLong) Gate(s *snapshot.Snapshot) detect.GateResult {
	t := detect.NewTrail()
	mr := d.cfg.MeanReversion
	mode := session.Classify(s)

	// 1. Session-adaptive oversold check.
	oversold := mr.RSIOversoldRTH
	if mode == session.Weekend {
		oversold = mr.RSIOversoldWeekend
	}
	if !s.RSI14.Valid {
		t.Fail("rsi_oversold", "RSI(14) unavailable")
		return t.Result()
	}
	if !t.Check("rsi_oversold", s.RSI14.Value < oversold, s.RSI14.Value, oversold,
		"RSI %.1f < %.1f (%s)", s.RSI14.Value, oversold, mode) {
		return t.Result()
	}

	// 2. VWAP stretch. Mandatory in regular hours; on weekends the check is
	// skipped entirely when VWAP data is unavailable, and a looser threshold
	// applies when it is.
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
		if !t.Check("vwap_stretch", dist.Value <= -stretch, dist.Value, -stretch,
			"price %.2f%% vs VWAP, need <= -%.2f%%", dist.Value, stretch) {
			return t.Result()
		}
	}

	// 3. Volatility-normalized stretch below the 21 EMA.
	atrStretch := s.ATRStretchBelowEMA21()
	if !atrStretch.Valid {
		t.Fail("atr_stretch", "ATR stretch unavailable (missing or degenerate price/EMA21/ATR)")
		return t.Result()
	}
	if !t.Check("atr_stretch", atrStretch.Value >= mr.ATRStretchMin, atrStretch.Value, mr.ATRStretchMin,
		"%.2fx ATR below EMA21, need >= %.2fx", atrStretch.Value, mr.ATRStretchMin) {
		return t.Result()
	}

	// 4. Graduated trending_down veto. Oversold bounces are a legitimate
	// mean-reversion case inside downtrends, so the regime alone never
	// blocks: only price far below both moving averages without an extreme
	// RSI does, and otherwise a stricter RSI bar applies.
	if s.Regime == snapshot.RegimeTrendingDown {
		d9 := s.DistanceBelowEMAPct(s.EMA9)
		d21 := s.DistanceBelowEMAPct(s.EMA21)
		farBelowBoth := d9.Valid && d21.Valid &&
			d9.Value > mr.EMADistanceVetoPct && d21.Value > mr.EMADistanceVetoPct
		extreme := s.RSI14.Value < mr.RSIExtremeOversold
		if farBelowBoth && !extreme {
			t.Check("regime_veto", false,
				map[string]interface{}{"ema9_dist": d9.Value, "ema21_dist": d21.Value, "rsi": s.RSI14.Value},
				mr.EMADistanceVetoPct,
				"trending_down: %.1f%%/%.1f%% below EMAs without extreme RSI %.1f", d9.Value, d21.Value, s.RSI14.Value)
			return t.Result()
		}
		if !t.Check("regime_veto", s.RSI14.Value < mr.RSICounterTrend || extreme, s.RSI14.Value, mr.RSICounterTrend,
			"trending_down requires RSI %.1f < %.1f", s.RSI14.Value, mr.RSICounterTrend) {
			return t.Result()
		}
	} else if s.Regime == snapshot.RegimeUnknown {
		t.Skip("regime_veto", "market regime unavailable")
	} else {
		t.Check("regime_veto", true, string(s.Regime), nil, "regime %s carries no veto", s.Regime)
	}

	// 5. Refuse to fight a heavy one-sided institutional flow read.
	if !bearishFlowVeto(t, s.Flow, d.cfg.FlowVeto) {
		return t.Result()
	}

	return t.Result()
}

// Factors scores oversold depth, stretch, participation, regime suitability,
// divergence and RSI turn. Weights sum to 1.0.
func (d *MeanReversionLong) Factors() []detect.Factor {
	mr := d.cfg.MeanReversion
	return []detect.Factor{
		{Name: "rsi_oversold_depth", Weight: 0.25, Evaluate: func(s *snapshot.Snapshot) float64 {
			if !s.RSI14.Valid {
				return neutralScore
			}
			rsi := s.RSI14.Value
			switch {
			case rsi <= mr.RSIExtremeOversold:
				return 95
			case rsi < 25:
				return 85
			case rsi < 28:
				return 70
			case rsi < mr.RSIOversoldRTH:
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
			below := -dist.Value
			switch {
			case below >= 1.5:
				return 95
			case below >= 1.0:
				return 85
			case below >= 0.8:
				return 75
			case below >= 0.5:
				return 65
			default:
				return neutralScore
			}
		}},
		{Name: "atr_stretch", Weight: 0.20, Evaluate: func(s *snapshot.Snapshot) float64 {
			stretch := s.ATRStretchBelowEMA21()
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
				snapshot.RegimeTrendingUp:   60,
				snapshot.RegimeVolatile:     55,
				snapshot.RegimeTrendingDown: 25,
			})
		}},
		{Name: "bullish_divergence", Weight: 0.05, Evaluate: func(s *snapshot.Snapshot) float64 {
			if s.Divergence == nil || !s.Divergence.Confidence.Valid {
				return neutralScore
			}
			if s.Divergence.Type != "bullish" {
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
			// RSI curling up out of oversold is materially stronger evidence
			// than RSI still falling into it.
			if delta.Value > 0 && s.Prev.RSI14.Value < mr.RSIOversoldRTH {
				return 90
			}
			if delta.Value > 0 {
				return 65
			}
			return 35
		}},
	}
}
