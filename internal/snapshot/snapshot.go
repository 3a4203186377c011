package snapshot

import (
	"encoding/json"
	"time"
)

// Float is an explicitly optional float64 field. The zero value is "absent".
// Consumers must check Valid before using Value; an absent field means the
// upstream pipeline could not compute the indicator, never that it is zero.
type Float struct {
	Value float64
	Valid bool
}

// F wraps a known-present float value.
func F(v float64) Float {
	return Float{Value: v, Valid: true}
}

// Or returns the value when present, def otherwise.
func (f Float) Or(def float64) float64 {
	if f.Valid {
		return f.Value
	}
	return def
}

// MarshalJSON encodes absent fields as null.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON treats null as absent.
func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		f.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// Bool is an explicitly optional boolean field.
type Bool struct {
	Value bool
	Valid bool
}

// B wraps a known-present boolean value.
func B(v bool) Bool {
	return Bool{Value: v, Valid: true}
}

// MarshalJSON encodes absent fields as null.
func (b Bool) MarshalJSON() ([]byte, error) {
	if !b.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(b.Value)
}

// UnmarshalJSON treats null as absent.
func (b *Bool) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		b.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &b.Value); err != nil {
		return err
	}
	b.Valid = true
	return nil
}

// Regime classifies current price behavior for a symbol.
type Regime string

const (
	RegimeTrendingUp   Regime = "trending_up"
	RegimeTrendingDown Regime = "trending_down"
	RegimeRanging      Regime = "ranging"
	RegimeChoppy       Regime = "choppy"
	RegimeVolatile     Regime = "volatile"
	RegimeUnknown      Regime = ""
)

// FlowBias is the aggregated directional lean of large/institutional orders.
type FlowBias string

const (
	FlowBullish FlowBias = "bullish"
	FlowBearish FlowBias = "bearish"
	FlowNeutral FlowBias = "neutral"
)

// FlowSummary aggregates institutional order-flow activity for one symbol.
type FlowSummary struct {
	Bias             FlowBias `json:"flow_bias"`
	FlowScore        Float    `json:"flow_score"`
	SweepCount       int      `json:"sweep_count"`
	BlockCount       int      `json:"block_count"`
	BuyPressureRatio Float    `json:"buy_pressure_ratio"`
}

// Divergence describes a price/indicator divergence read from upstream.
type Divergence struct {
	Type       string `json:"type"` // "bullish" or "bearish"
	Confidence Float  `json:"confidence"`
}

// TrendDirection is one timeframe's trend classification.
type TrendDirection string

const (
	TrendUp       TrendDirection = "up"
	TrendDown     TrendDirection = "down"
	TrendSideways TrendDirection = "sideways"
)

// TrendReading is one timeframe's trend state with a staleness flag set by
// the upstream pipeline when the underlying bars have not refreshed.
type TrendReading struct {
	Direction TrendDirection `json:"direction"`
	Stale     bool           `json:"stale"`
}

// KeyLevels carries distances to the nearest reference price levels, as
// positive percentages of current price.
type KeyLevels struct {
	SupportDistancePct    Float `json:"support_distance_pct"`
	ResistanceDistancePct Float `json:"resistance_distance_pct"`
}

// GammaProfile carries dealer-gamma positioning levels when options data is
// available for the symbol.
type GammaProfile struct {
	FlipLevel Float `json:"flip_level"`
	CallWall  Float `json:"call_wall"`
	PutWall   Float `json:"put_wall"`
}

// Session carries session metadata. IsRegularHours absent means the upstream
// pipeline did not classify the session; see the session package for how
// absence is resolved.
type Session struct {
	IsRegularHours Bool `json:"is_regular_hours"`
}

// AssetClass identifies the instrument category a snapshot describes.
type AssetClass string

const (
	AssetStock AssetClass = "stock"
	AssetETF   AssetClass = "etf"
	AssetIndex AssetClass = "index"
)

// Snapshot is an immutable, point-in-time bundle of per-symbol indicators,
// session metadata and derived pattern flags produced by the upstream feature
// pipeline. Detectors read it and never mutate it. Any field except Symbol
// may be absent.
type Snapshot struct {
	Symbol     string     `json:"symbol"`
	AssetClass AssetClass `json:"asset_class"`
	Timestamp  time.Time  `json:"timestamp"`

	Price     Float `json:"price"`
	RelVolume Float `json:"rel_volume"` // volume relative to average, 1.0 = average

	RSI14           Float `json:"rsi_14"`
	VWAPDistancePct Float `json:"vwap_distance_pct"` // signed % of price vs VWAP
	EMA9            Float `json:"ema_9"`
	EMA21           Float `json:"ema_21"`
	ATR             Float `json:"atr"`

	Divergence    *Divergence `json:"divergence,omitempty"`
	Regime        Regime      `json:"market_regime"`
	PatientCandle Bool        `json:"patient_candle"`

	Session Session      `json:"session"`
	Flow    *FlowSummary `json:"flow,omitempty"`

	MTF    map[string]TrendReading `json:"mtf,omitempty"` // timeframe -> trend
	Levels *KeyLevels              `json:"levels,omitempty"`
	Gamma  *GammaProfile           `json:"gamma,omitempty"`

	// Prev is the prior evaluation tick, used only for momentum deltas.
	Prev *Snapshot `json:"prev,omitempty"`
}

// HasOptionsData reports whether options-derived features (flow or gamma)
// are populated, so callers can skip detectors that require them.
func (s *Snapshot) HasOptionsData() bool {
	return s.Flow != nil || s.Gamma != nil
}

// VWAPDistance returns the VWAP distance treating an exact 0.0 as absent.
// The upstream source emits 0 as a data-quality sentinel when VWAP could not
// be computed, so it must never be read as a genuine zero-deviation print.
func (s *Snapshot) VWAPDistance() Float {
	if !s.VWAPDistancePct.Valid || s.VWAPDistancePct.Value == 0 {
		return Float{}
	}
	return s.VWAPDistancePct
}

// ATRStretchBelowEMA21 returns how many ATRs the current price sits below the
// 21-period EMA. Absent when any input is missing or degenerate (zero ATR,
// near-zero price).
func (s *Snapshot) ATRStretchBelowEMA21() Float {
	if !s.Price.Valid || !s.EMA21.Valid || !s.ATR.Valid {
		return Float{}
	}
	if s.ATR.Value <= 0 || s.Price.Value <= 1e-9 {
		return Float{}
	}
	return F((s.EMA21.Value - s.Price.Value) / s.ATR.Value)
}

// ATRStretchAboveEMA21 mirrors ATRStretchBelowEMA21 for short setups.
func (s *Snapshot) ATRStretchAboveEMA21() Float {
	below := s.ATRStretchBelowEMA21()
	if !below.Valid {
		return Float{}
	}
	return F(-below.Value)
}

// DistanceBelowEMAPct returns how far price sits below the given EMA, as a
// percentage of the EMA. Negative when price is above. Absent on missing or
// degenerate inputs.
func (s *Snapshot) DistanceBelowEMAPct(ema Float) Float {
	if !s.Price.Valid || !ema.Valid || ema.Value <= 1e-9 {
		return Float{}
	}
	return F((ema.Value - s.Price.Value) / ema.Value * 100.0)
}

// RSIDelta returns the change in RSI(14) versus the prior tick, absent when
// either reading is missing.
func (s *Snapshot) RSIDelta() Float {
	if s.Prev == nil || !s.RSI14.Valid || !s.Prev.RSI14.Valid {
		return Float{}
	}
	return F(s.RSI14.Value - s.Prev.RSI14.Value)
}
