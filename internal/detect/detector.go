package detect

import (
	"fmt"

	"github.com/edgescan/edgescan/internal/snapshot"
)

// Direction is the trade direction a detector looks for.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Factor is one weighted, independently scored piece of evidence. Evaluate
// maps a snapshot to a [0,100] sub-score; missing inputs score the neutral
// midpoint 50 so a single absent optional field cannot drag the aggregate to
// an extreme.
type Factor struct {
	Name     string
	Weight   float64
	Evaluate func(s *snapshot.Snapshot) float64
}

// Detector is one tradeable-setup archetype: a hard gate plus a declarative
// weighted factor list. Implementations are stateless and safe for
// concurrent use; they never mutate the snapshot and never panic on missing
// fields (absence fails the relevant gate step instead).
type Detector interface {
	Type() string
	Direction() Direction
	AssetClasses() []snapshot.AssetClass
	RequiresOptionsData() bool

	// Gate evaluates the hard pass/fail preconditions in declared order,
	// short-circuiting on the first failure, and returns the full check
	// trail either way.
	Gate(s *snapshot.Snapshot) GateResult

	// Factors returns the detector's scoring factors. Only consulted when
	// Gate passed.
	Factors() []Factor
}

// GateCheck records one gate step's outcome for the explanation trail.
type GateCheck struct {
	Name        string      `json:"name"`
	Passed      bool        `json:"passed"`
	Skipped     bool        `json:"skipped,omitempty"`
	Value       interface{} `json:"value"`
	Threshold   interface{} `json:"threshold"`
	Description string      `json:"description"`
}

// GateResult is the structured explanation trail of one gate evaluation.
type GateResult struct {
	Passed         bool        `json:"passed"`
	Checks         []GateCheck `json:"checks"`
	PassedChecks   []string    `json:"passed_checks"`
	FailureReasons []string    `json:"failure_reasons"`
}

// Trail accumulates gate checks in evaluation order. Detectors call Check
// for each step and stop at the first failure; Result snapshots the outcome.
type Trail struct {
	result GateResult
}

// NewTrail returns an empty gate trail.
func NewTrail() *Trail {
	return &Trail{result: GateResult{Passed: true}}
}

// Check records one gate step and returns whether it passed.
func (t *Trail) Check(name string, passed bool, value, threshold interface{}, format string, args ...interface{}) bool {
	check := GateCheck{
		Name:        name,
		Passed:      passed,
		Value:       value,
		Threshold:   threshold,
		Description: fmt.Sprintf(format, args...),
	}
	t.result.Checks = append(t.result.Checks, check)
	if passed {
		t.result.PassedChecks = append(t.result.PassedChecks, name)
	} else {
		t.result.Passed = false
		t.result.FailureReasons = append(t.result.FailureReasons, check.Description)
	}
	return passed
}

// Skip records a gate step that was not applicable for this snapshot (e.g.
// VWAP data unavailable on a weekend). Skipped steps neither pass nor fail.
func (t *Trail) Skip(name, reason string) {
	t.result.Checks = append(t.result.Checks, GateCheck{
		Name:        name,
		Passed:      true,
		Skipped:     true,
		Description: reason,
	})
}

// Fail records a terminal missing-data failure for the named step.
func (t *Trail) Fail(name, reason string) {
	t.Check(name, false, "unavailable", nil, "%s", reason)
}

// Result returns the accumulated gate outcome.
func (t *Trail) Result() GateResult {
	return t.result
}
