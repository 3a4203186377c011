// Package confluence combines cross-cutting, detector-independent evidence
// domains (multi-timeframe trend, order-flow bias, key-level proximity,
// dealer-gamma positioning) into one overall per-symbol score used for
// ranking. Unavailable domains are excluded and the remaining weights
// renormalized; an absent domain never scores as zero.
package confluence

import (
	"time"

	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/scoring"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// DomainStatus reports whether a domain's inputs were usable, so consumers
// can explain why a score is what it is.
type DomainStatus string

const (
	StatusFresh  DomainStatus = "fresh"
	StatusStale  DomainStatus = "stale"
	StatusAbsent DomainStatus = "absent"
)

// Component is one evidence domain's bounded sub-score.
type Component struct {
	Score  float64      `json:"score"`
	Status DomainStatus `json:"status"`
	Weight float64      `json:"weight"` // effective weight after renormalization, 0 when excluded
}

// TimeframeState is one timeframe's trend reading inside the MTF component.
type TimeframeState struct {
	Direction snapshot.TrendDirection `json:"direction,omitempty"`
	Status    DomainStatus            `json:"status"`
}

// MTFComponent is the multi-timeframe alignment domain with its per-timeframe
// breakdown.
type MTFComponent struct {
	Component
	AlignmentFraction float64                   `json:"alignment_fraction"`
	Timeframes        map[string]TimeframeState `json:"timeframes"`
}

// DetectorFactors surfaces a gated detector's strongest evidence into the
// confluence record.
type DetectorFactors struct {
	DetectorType string                       `json:"detector_type"`
	Confidence   float64                      `json:"confidence"`
	TopFactors   []scoring.FactorContribution `json:"top_factors"`
}

// Components is the per-domain breakdown of a confluence score.
type Components struct {
	MTFAlignment          MTFComponent      `json:"mtf_alignment"`
	FlowBias              Component         `json:"flow_bias"`
	KeyLevelProximity     Component         `json:"key_level_proximity"`
	GammaPositioning      Component         `json:"gamma_positioning"`
	PerDetectorTopFactors []DetectorFactors `json:"per_detector_top_factors"`
}

// Score is the overall per-symbol confluence record, recomputed fully on
// every snapshot.
type Score struct {
	Symbol       string     `json:"symbol"`
	OverallScore float64    `json:"overall_score"`
	Components   Components `json:"components"`
	Timestamp    time.Time  `json:"timestamp"`
}

// Aggregator computes confluence scores from a snapshot and the tick's
// gated signals.
type Aggregator struct {
	cfg *config.ConfluenceConfig
}

// NewAggregator builds a confluence aggregator from configuration.
func NewAggregator(cfg *config.ConfluenceConfig) *Aggregator {
	if cfg == nil {
		cfg = config.DefaultConfluenceConfig()
	}
	return &Aggregator{cfg: cfg}
}

// Aggregate computes the overall symbol score. Domains whose inputs are
// absent are excluded and the remaining domain weights renormalized; when no
// domain has data the overall score is the neutral midpoint.
func (a *Aggregator) Aggregate(s *snapshot.Snapshot, signals []*scoring.Signal) *Score {
	mtf := a.scoreMTF(s)
	flow := a.scoreFlow(s)
	levels := a.scoreLevels(s)
	gamma := a.scoreGamma(s)

	w := a.cfg.Weights
	type weighted struct {
		comp   *Component
		weight float64
	}
	domains := []weighted{
		{&mtf.Component, w.MTFAlignment},
		{&flow, w.FlowBias},
		{&levels, w.KeyLevelProximity},
		{&gamma, w.GammaPositioning},
	}

	includedWeight := 0.0
	for _, d := range domains {
		if d.comp.Status != StatusAbsent {
			includedWeight += d.weight
		}
	}

	overall := 50.0
	if includedWeight > 0 {
		overall = 0
		for _, d := range domains {
			if d.comp.Status == StatusAbsent {
				continue
			}
			effective := d.weight / includedWeight
			d.comp.Weight = effective
			overall += d.comp.Score * effective
		}
	}

	return &Score{
		Symbol:       s.Symbol,
		OverallScore: clamp(overall),
		Components: Components{
			MTFAlignment:          mtf,
			FlowBias:              flow,
			KeyLevelProximity:     levels,
			GammaPositioning:      gamma,
			PerDetectorTopFactors: a.collectTopFactors(signals),
		},
		Timestamp: s.Timestamp,
	}
}

// scoreMTF counts trend agreement across the configured timeframe set.
// Stale readings still vote when nothing fresh is available, but the domain
// is flagged stale so consumers can discount it.
func (a *Aggregator) scoreMTF(s *snapshot.Snapshot) MTFComponent {
	states := make(map[string]TimeframeState, len(a.cfg.Timeframes))
	var fresh, stale []snapshot.TrendReading
	for _, tf := range a.cfg.Timeframes {
		reading, ok := s.MTF[tf]
		if !ok {
			states[tf] = TimeframeState{Status: StatusAbsent}
			continue
		}
		status := StatusFresh
		if reading.Stale {
			status = StatusStale
			stale = append(stale, reading)
		} else {
			fresh = append(fresh, reading)
		}
		states[tf] = TimeframeState{Direction: reading.Direction, Status: status}
	}

	counted := fresh
	status := StatusFresh
	if len(fresh) == 0 {
		counted = stale
		status = StatusStale
	}
	if len(counted) == 0 {
		return MTFComponent{
			Component:  Component{Score: 50, Status: StatusAbsent},
			Timeframes: states,
		}
	}

	up, down := 0, 0
	for _, r := range counted {
		switch r.Direction {
		case snapshot.TrendUp:
			up++
		case snapshot.TrendDown:
			down++
		}
	}
	net := float64(up-down) / float64(len(counted))
	aligned := float64(maxInt(up, down)) / float64(len(counted))

	return MTFComponent{
		Component:         Component{Score: clamp(50 + 50*net), Status: status},
		AlignmentFraction: aligned,
		Timeframes:        states,
	}
}

// scoreFlow maps institutional flow bias and magnitude to a bounded
// sub-score centered at 50.
func (a *Aggregator) scoreFlow(s *snapshot.Snapshot) Component {
	if s.Flow == nil {
		return Component{Score: 50, Status: StatusAbsent}
	}

	lean := 0.0
	switch s.Flow.Bias {
	case snapshot.FlowBullish:
		lean = 1
	case snapshot.FlowBearish:
		lean = -1
	}

	magnitude := 15.0
	if s.Flow.FlowScore.Valid && s.Flow.FlowScore.Value >= 70 {
		magnitude += 10
	}
	if s.Flow.SweepCount >= 3 {
		magnitude += 5
	}
	if s.Flow.BlockCount >= 2 {
		magnitude += 5
	}

	score := 50 + lean*magnitude
	if s.Flow.BuyPressureRatio.Valid {
		// Buy-pressure shifts the score independently of the labeled bias.
		score += (s.Flow.BuyPressureRatio.Value - 0.5) * 30
	}

	return Component{Score: clamp(score), Status: StatusFresh}
}

// scoreLevels leans the score toward whichever reference level is nearer:
// close support is constructive, close resistance caps upside.
func (a *Aggregator) scoreLevels(s *snapshot.Snapshot) Component {
	if s.Levels == nil {
		return Component{Score: 50, Status: StatusAbsent}
	}
	sup := s.Levels.SupportDistancePct
	res := s.Levels.ResistanceDistancePct
	if !sup.Valid && !res.Valid {
		return Component{Score: 50, Status: StatusAbsent}
	}

	score := 50.0
	switch {
	case sup.Valid && (!res.Valid || sup.Value <= res.Value):
		score = 50 + proximityLean(sup.Value)
	case res.Valid:
		score = 50 - proximityLean(res.Value)
	}
	return Component{Score: clamp(score), Status: StatusFresh}
}

func proximityLean(distancePct float64) float64 {
	switch {
	case distancePct <= 0.25:
		return 40
	case distancePct <= 0.5:
		return 30
	case distancePct <= 1.0:
		return 20
	case distancePct <= 2.0:
		return 10
	default:
		return 0
	}
}

// scoreGamma scores dealer positioning: above the flip with call-wall
// headroom supports continuation, below the flip amplifies downside.
func (a *Aggregator) scoreGamma(s *snapshot.Snapshot) Component {
	if s.Gamma == nil || !s.Gamma.FlipLevel.Valid || !s.Price.Valid || s.Price.Value <= 1e-9 {
		return Component{Score: 50, Status: StatusAbsent}
	}

	flipDistPct := (s.Price.Value - s.Gamma.FlipLevel.Value) / s.Price.Value * 100.0
	score := 50.0
	switch {
	case flipDistPct >= 2.0:
		score = 80
	case flipDistPct > 0:
		score = 65
	case flipDistPct > -2.0:
		score = 38
	default:
		score = 25
	}

	if flipDistPct > 0 && s.Gamma.CallWall.Valid {
		headroom := (s.Gamma.CallWall.Value - s.Price.Value) / s.Price.Value * 100.0
		if headroom >= 3.0 {
			score += 10
		} else if headroom < 0.5 {
			// Pinned under the call wall: upside is sold against.
			score -= 15
		}
	}
	if flipDistPct <= 0 && s.Gamma.PutWall.Valid {
		support := (s.Price.Value - s.Gamma.PutWall.Value) / s.Price.Value * 100.0
		if support >= 0 && support <= 1.0 {
			score += 8
		}
	}

	return Component{Score: clamp(score), Status: StatusFresh}
}

func (a *Aggregator) collectTopFactors(signals []*scoring.Signal) []DetectorFactors {
	if len(signals) == 0 {
		return nil
	}
	out := make([]DetectorFactors, 0, len(signals))
	for _, sig := range signals {
		out = append(out, DetectorFactors{
			DetectorType: sig.DetectorType,
			Confidence:   sig.Confidence,
			TopFactors:   sig.TopFactors(a.cfg.TopFactorsPerDetector),
		})
	}
	return out
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
