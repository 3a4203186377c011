package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/edgescan/edgescan/internal/detect"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// FactorContribution records one factor's sub-score and weight inside a
// signal, for the supporting-evidence trail.
type FactorContribution struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// Signal is the output of a gated detector for one evaluation tick. It is
// superseded, never mutated, by the next tick's evaluation; persistence is a
// collaborator's concern.
type Signal struct {
	ID                  string               `json:"id"`
	DetectorType        string               `json:"detector_type"`
	Symbol              string               `json:"symbol"`
	Direction           detect.Direction     `json:"direction"`
	Confidence          float64              `json:"confidence"`
	ContributingFactors []FactorContribution `json:"contributing_factors"`
	GateTrail           detect.GateResult    `json:"gate_trail"`
	Timestamp           time.Time            `json:"timestamp"`
}

// TopFactors returns the n highest-scoring contributing factors.
func (s *Signal) TopFactors(n int) []FactorContribution {
	sorted := make([]FactorContribution, len(s.ContributingFactors))
	copy(sorted, s.ContributingFactors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// signalNamespace seeds deterministic signal IDs: the same snapshot always
// yields the same ID, keeping repeated evaluation idempotent.
var signalNamespace = uuid.MustParse("7f1a43ce-9d60-4a5b-8f3e-2d14c60b90aa")

// weightEpsilon is the tolerance inside which a declared weight sum is
// accepted as 1.0 without renormalization.
const weightEpsilon = 1e-9

// Aggregator combines a detector's factor sub-scores into one confidence
// value on [0,100].
type Aggregator struct{}

// NewAggregator returns a scoring aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Score evaluates every factor against the snapshot and returns the weighted
// confidence plus the per-factor contributions. Declared weights are
// normalized by their actual sum when they do not total 1.0, so a 0.9 or 1.1
// roster scores identically to a pre-normalized one. Factor outputs are
// clamped to [0,100] before weighting.
func (a *Aggregator) Score(factors []detect.Factor, s *snapshot.Snapshot) (float64, []FactorContribution) {
	if len(factors) == 0 {
		return 0, nil
	}

	weightSum := 0.0
	for _, f := range factors {
		weightSum += f.Weight
	}
	if weightSum <= 0 {
		return 0, nil
	}
	norm := 1.0
	if math.Abs(weightSum-1.0) > weightEpsilon {
		norm = 1.0 / weightSum
	}

	contributions := make([]FactorContribution, 0, len(factors))
	total := 0.0
	for _, f := range factors {
		score := clamp(f.Evaluate(s))
		w := f.Weight * norm
		total += score * w
		contributions = append(contributions, FactorContribution{
			Name:   f.Name,
			Score:  score,
			Weight: w,
		})
	}

	return clamp(total), contributions
}

// BuildSignal assembles the signal record for a gated detector.
func (a *Aggregator) BuildSignal(d detect.Detector, s *snapshot.Snapshot, gate detect.GateResult) *Signal {
	confidence, contributions := a.Score(d.Factors(), s)
	return &Signal{
		ID:                  signalID(d.Type(), s),
		DetectorType:        d.Type(),
		Symbol:              s.Symbol,
		Direction:           d.Direction(),
		Confidence:          confidence,
		ContributingFactors: contributions,
		GateTrail:           gate,
		Timestamp:           s.Timestamp,
	}
}

func signalID(detectorType string, s *snapshot.Snapshot) string {
	name := detectorType + "|" + s.Symbol + "|" + s.Timestamp.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(signalNamespace, []byte(name)).String()
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
