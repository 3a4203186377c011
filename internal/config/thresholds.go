package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MeanReversionThresholds holds the tuned constants for the mean-reversion
// detector pair. Values were adjusted empirically across revisions of the
// source strategy; change them in config, not in code.
type MeanReversionThresholds struct {
	RSIOversoldRTH       float64 `yaml:"rsi_oversold_rth"`         // 30
	RSIOversoldWeekend   float64 `yaml:"rsi_oversold_weekend"`     // 35
	RSIOverboughtRTH     float64 `yaml:"rsi_overbought_rth"`       // 70
	RSIOverboughtWknd    float64 `yaml:"rsi_overbought_weekend"`   // 65
	RSIExtremeOversold   float64 `yaml:"rsi_extreme_oversold"`     // 20
	RSIExtremeOverbought float64 `yaml:"rsi_extreme_overbought"`   // 80
	RSICounterTrend      float64 `yaml:"rsi_counter_trend"`        // 25 (stricter bar inside adverse trends)
	VWAPStretchRTHPct    float64 `yaml:"vwap_stretch_rth_pct"`     // 0.5 (% beyond VWAP, mandatory in RTH)
	VWAPStretchWkndPct   float64 `yaml:"vwap_stretch_weekend_pct"` // 0.3 (applied only when VWAP present)
	ATRStretchMin        float64 `yaml:"atr_stretch_min"`          // 2.0 (× ATR beyond EMA21)
	EMADistanceVetoPct   float64 `yaml:"ema_distance_veto_pct"`    // 3.0 (% beyond both EMAs blocks entry)
}

// FlowVetoThresholds defines when a one-sided institutional flow read vetoes
// a counter-flow detector.
type FlowVetoThresholds struct {
	BlockCount int     `yaml:"block_count"` // 3: this many opposing block trades vetoes
	SweepCount int     `yaml:"sweep_count"` // 3: sweeps needed for the sweep+score veto
	FlowScore  float64 `yaml:"flow_score"`  // 70: flow score needed alongside sweeps
}

// MomentumThresholds holds constants for the momentum continuation pair.
type MomentumThresholds struct {
	RelVolumeMin     float64 `yaml:"rel_volume_min"`      // 1.3× average volume
	EMASpreadATRMin  float64 `yaml:"ema_spread_atr_min"`  // 0.25× ATR between EMA9 and EMA21
	RSIFloorLong     float64 `yaml:"rsi_floor_long"`      // 50
	RSICeilingLong   float64 `yaml:"rsi_ceiling_long"`    // 78 (too extended)
	RSICeilingShort  float64 `yaml:"rsi_ceiling_short"`   // 50
	RSIFloorShort    float64 `yaml:"rsi_floor_short"`     // 22
}

// ReclaimThresholds holds constants for the VWAP reclaim detector.
type ReclaimThresholds struct {
	PriorBelowVWAPPct float64 `yaml:"prior_below_vwap_pct"` // 0.2: prior tick at least this far below
	RSIMidband        float64 `yaml:"rsi_midband"`          // 45: RSI must be recovering through this
}

// SqueezeThresholds holds constants for the volatility squeeze detector.
type SqueezeThresholds struct {
	ATRPricePctMax float64 `yaml:"atr_price_pct_max"` // 1.2: ATR as % of price, compression ceiling
	RelVolumeMin   float64 `yaml:"rel_volume_min"`    // 1.5× on the resolution bar
}

// OptionsFlowThresholds holds constants for the options-flow detectors.
type OptionsFlowThresholds struct {
	FlowScoreMin   float64 `yaml:"flow_score_min"`   // 60
	SweepCountMin  int     `yaml:"sweep_count_min"`  // 2
	BlockCountMin  int     `yaml:"block_count_min"`  // 1
	CallWallRoomPct float64 `yaml:"call_wall_room_pct"` // 1.0: min % headroom to the call wall
}

// DetectorThresholds is the full session/regime threshold surface shared by
// all registered detectors.
type DetectorThresholds struct {
	MeanReversion MeanReversionThresholds `yaml:"mean_reversion"`
	FlowVeto      FlowVetoThresholds      `yaml:"flow_veto"`
	Momentum      MomentumThresholds      `yaml:"momentum"`
	Reclaim       ReclaimThresholds       `yaml:"reclaim"`
	Squeeze       SqueezeThresholds       `yaml:"squeeze"`
	OptionsFlow   OptionsFlowThresholds   `yaml:"options_flow"`
}

// DefaultDetectorThresholds returns the built-in tuned constants.
func DefaultDetectorThresholds() *DetectorThresholds {
	return &DetectorThresholds{
		MeanReversion: MeanReversionThresholds{
			RSIOversoldRTH:       30.0,
			RSIOversoldWeekend:   35.0,
			RSIOverboughtRTH:     70.0,
			RSIOverboughtWknd:    65.0,
			RSIExtremeOversold:   20.0,
			RSIExtremeOverbought: 80.0,
			RSICounterTrend:      25.0,
			VWAPStretchRTHPct:    0.5,
			VWAPStretchWkndPct:   0.3,
			ATRStretchMin:        2.0,
			EMADistanceVetoPct:   3.0,
		},
		FlowVeto: FlowVetoThresholds{
			BlockCount: 3,
			SweepCount: 3,
			FlowScore:  70.0,
		},
		Momentum: MomentumThresholds{
			RelVolumeMin:    1.3,
			EMASpreadATRMin: 0.25,
			RSIFloorLong:    50.0,
			RSICeilingLong:  78.0,
			RSICeilingShort: 50.0,
			RSIFloorShort:   22.0,
		},
		Reclaim: ReclaimThresholds{
			PriorBelowVWAPPct: 0.2,
			RSIMidband:        45.0,
		},
		Squeeze: SqueezeThresholds{
			ATRPricePctMax: 1.2,
			RelVolumeMin:   1.5,
		},
		OptionsFlow: OptionsFlowThresholds{
			FlowScoreMin:    60.0,
			SweepCountMin:   2,
			BlockCountMin:   1,
			CallWallRoomPct: 1.0,
		},
	}
}

// LoadDetectorThresholds reads thresholds from a YAML file and validates
// them. Fields omitted from the file keep their built-in defaults.
func LoadDetectorThresholds(path string) (*DetectorThresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read thresholds file %s: %w", path, err)
	}

	cfg := DefaultDetectorThresholds()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse thresholds YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector thresholds: %w", err)
	}
	return cfg, nil
}

// Validate checks that thresholds are internally consistent.
func (c *DetectorThresholds) Validate() error {
	mr := c.MeanReversion
	if mr.RSIOversoldRTH <= 0 || mr.RSIOversoldRTH >= 50 {
		return fmt.Errorf("rsi_oversold_rth %.1f out of range (0,50)", mr.RSIOversoldRTH)
	}
	if mr.RSIOversoldWeekend < mr.RSIOversoldRTH {
		return fmt.Errorf("weekend oversold %.1f must be looser (higher) than RTH %.1f", mr.RSIOversoldWeekend, mr.RSIOversoldRTH)
	}
	if mr.RSIOverboughtWknd > mr.RSIOverboughtRTH {
		return fmt.Errorf("weekend overbought %.1f must be looser (lower) than RTH %.1f", mr.RSIOverboughtWknd, mr.RSIOverboughtRTH)
	}
	if mr.RSIExtremeOversold >= mr.RSICounterTrend {
		return fmt.Errorf("extreme oversold %.1f must sit below counter-trend bar %.1f", mr.RSIExtremeOversold, mr.RSICounterTrend)
	}
	if mr.VWAPStretchWkndPct > mr.VWAPStretchRTHPct {
		return fmt.Errorf("weekend VWAP stretch %.2f%% must be looser than RTH %.2f%%", mr.VWAPStretchWkndPct, mr.VWAPStretchRTHPct)
	}
	if mr.ATRStretchMin <= 0 || mr.ATRStretchMin > 10 {
		return fmt.Errorf("atr_stretch_min %.2f out of range (0,10]", mr.ATRStretchMin)
	}
	if mr.EMADistanceVetoPct <= 0 || mr.EMADistanceVetoPct > 25 {
		return fmt.Errorf("ema_distance_veto_pct %.2f out of range (0,25]", mr.EMADistanceVetoPct)
	}
	if c.FlowVeto.BlockCount < 1 {
		return fmt.Errorf("flow veto block_count %d must be >= 1", c.FlowVeto.BlockCount)
	}
	if c.FlowVeto.FlowScore <= 0 || c.FlowVeto.FlowScore > 100 {
		return fmt.Errorf("flow veto flow_score %.1f out of range (0,100]", c.FlowVeto.FlowScore)
	}
	if c.Momentum.RelVolumeMin <= 0 {
		return fmt.Errorf("momentum rel_volume_min %.2f must be positive", c.Momentum.RelVolumeMin)
	}
	if c.Squeeze.ATRPricePctMax <= 0 {
		return fmt.Errorf("squeeze atr_price_pct_max %.2f must be positive", c.Squeeze.ATRPricePctMax)
	}
	if c.OptionsFlow.FlowScoreMin <= 0 || c.OptionsFlow.FlowScoreMin > 100 {
		return fmt.Errorf("options flow_score_min %.1f out of range (0,100]", c.OptionsFlow.FlowScoreMin)
	}
	return nil
}
