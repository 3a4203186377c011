// Package engine drives detector evaluation: it fans snapshots out to the
// registry's detectors, isolates detector panics, aggregates signals and
// confluence, and ranks the results.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edgescan/edgescan/internal/confluence"
	"github.com/edgescan/edgescan/internal/detect"
	"github.com/edgescan/edgescan/internal/scoring"
	"github.com/edgescan/edgescan/internal/snapshot"
	"github.com/edgescan/edgescan/internal/telemetry"
)

// Rejection records a detector that was evaluated but stopped at its gate.
type Rejection struct {
	DetectorType   string   `json:"detector_type"`
	FailureReasons []string `json:"failure_reasons"`
}

// SymbolResult is the full outcome of evaluating one snapshot.
type SymbolResult struct {
	Symbol     string            `json:"symbol"`
	Signals    []*scoring.Signal `json:"signals"`
	Rejections []Rejection       `json:"rejections,omitempty"`
	Confluence *confluence.Score `json:"confluence"`
	Timestamp  time.Time         `json:"timestamp"`
}

// BestConfidence returns the strongest signal's confidence, 0 when no
// detector fired.
func (r *SymbolResult) BestConfidence() float64 {
	best := 0.0
	for _, sig := range r.Signals {
		if sig.Confidence > best {
			best = sig.Confidence
		}
	}
	return best
}

// Engine evaluates snapshots against a detector registry.
type Engine struct {
	registry   *detect.Registry
	scorer     *scoring.Aggregator
	confluence *confluence.Aggregator
	metrics    *telemetry.Metrics
	workers    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithWorkers overrides the batch worker count.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// New builds an engine over the given registry and aggregators.
func New(registry *detect.Registry, scorer *scoring.Aggregator, conf *confluence.Aggregator, opts ...Option) *Engine {
	e := &Engine{
		registry:   registry,
		scorer:     scorer,
		confluence: conf,
		workers:    runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// detectorOutcome is the result slot for one (snapshot, detector) task.
type detectorOutcome struct {
	signal    *scoring.Signal
	rejection *Rejection
}

// EvaluateSymbol runs every applicable detector against the snapshot and
// assembles the symbol result. Detectors run sequentially here; batch
// parallelism lives in EvaluateUniverse.
func (e *Engine) EvaluateSymbol(ctx context.Context, s *snapshot.Snapshot) (*SymbolResult, error) {
	if s == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	start := time.Now()

	detectors := e.registry.ForSnapshot(s)
	outcomes := make([]detectorOutcome, len(detectors))
	for i, d := range detectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcomes[i] = e.evaluateDetector(d, s)
	}

	result := e.assemble(s, outcomes)
	e.metrics.ObserveSymbolDuration(time.Since(start).Seconds())
	return result, nil
}

// EvaluateUniverse evaluates a batch of snapshots with a bounded worker
// pool. Each (snapshot, detector) pair is one task writing to its own result
// slot, so workers never contend on shared state.
func (e *Engine) EvaluateUniverse(ctx context.Context, snaps []*snapshot.Snapshot) ([]*SymbolResult, error) {
	if len(snaps) == 0 {
		return nil, nil
	}
	start := time.Now()

	type task struct {
		snapIdx int
		detIdx  int
	}

	perSnap := make([][]detect.Detector, len(snaps))
	outcomes := make([][]detectorOutcome, len(snaps))
	var tasks []task
	for i, s := range snaps {
		if s == nil {
			return nil, fmt.Errorf("nil snapshot at index %d", i)
		}
		perSnap[i] = e.registry.ForSnapshot(s)
		outcomes[i] = make([]detectorOutcome, len(perSnap[i]))
		for j := range perSnap[i] {
			tasks = append(tasks, task{snapIdx: i, detIdx: j})
		}
	}

	workers := e.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if workers < 1 {
		workers = 1
	}

	taskCh := make(chan task)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range taskCh {
				outcomes[t.snapIdx][t.detIdx] = e.evaluateDetector(perSnap[t.snapIdx][t.detIdx], snaps[t.snapIdx])
			}
		}()
	}

	var ctxErr error
dispatch:
	for _, t := range tasks {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break dispatch
		case taskCh <- t:
		}
	}
	close(taskCh)
	wg.Wait()
	if ctxErr != nil {
		return nil, ctxErr
	}

	results := make([]*SymbolResult, len(snaps))
	for i, s := range snaps {
		results[i] = e.assemble(s, outcomes[i])
	}
	e.metrics.ObserveSymbolDuration(time.Since(start).Seconds())
	return results, nil
}

// evaluateDetector runs one detector with panic isolation: a panicking
// detector loses only its own output for this tick.
func (e *Engine) evaluateDetector(d detect.Detector, s *snapshot.Snapshot) (out detectorOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Str("detector", d.Type()).
				Str("symbol", s.Symbol).
				Interface("panic", r).
				Msg("detector panicked, dropping its output for this tick")
			e.metrics.ObservePanic(d.Type())
			e.metrics.ObserveEvaluation(d.Type(), "panic")
			out = detectorOutcome{}
		}
	}()

	gate := d.Gate(s)
	if !gate.Passed {
		for _, check := range gate.Checks {
			if !check.Passed && !check.Skipped {
				e.metrics.ObserveGateFailure(d.Type(), check.Name)
			}
		}
		e.metrics.ObserveEvaluation(d.Type(), "gated")
		return detectorOutcome{rejection: &Rejection{
			DetectorType:   d.Type(),
			FailureReasons: gate.FailureReasons,
		}}
	}

	sig := e.scorer.BuildSignal(d, s, gate)
	e.metrics.ObserveEvaluation(d.Type(), "signal")
	e.metrics.ObserveSignal(sig.DetectorType, string(sig.Direction), sig.Confidence)
	return detectorOutcome{signal: sig}
}

func (e *Engine) assemble(s *snapshot.Snapshot, outcomes []detectorOutcome) *SymbolResult {
	result := &SymbolResult{
		Symbol:    s.Symbol,
		Timestamp: s.Timestamp,
	}
	for _, o := range outcomes {
		switch {
		case o.signal != nil:
			result.Signals = append(result.Signals, o.signal)
		case o.rejection != nil:
			result.Rejections = append(result.Rejections, *o.rejection)
		}
	}
	result.Confluence = e.confluence.Aggregate(s, result.Signals)
	e.metrics.ObserveConfluence(result.Confluence.OverallScore)

	log.Debug().
		Str("symbol", s.Symbol).
		Int("signals", len(result.Signals)).
		Int("rejections", len(result.Rejections)).
		Float64("confluence", result.Confluence.OverallScore).
		Msg("symbol evaluated")
	return result
}

// RankBySignalStrength orders results best-first: strongest signal
// confidence, then confluence, then symbol for a stable tiebreak.
func RankBySignalStrength(results []*SymbolResult) {
	sort.SliceStable(results, func(i, j int) bool {
		bi, bj := results[i].BestConfidence(), results[j].BestConfidence()
		if bi != bj {
			return bi > bj
		}
		ci, cj := results[i].Confluence.OverallScore, results[j].Confluence.OverallScore
		if ci != cj {
			return ci > cj
		}
		return results[i].Symbol < results[j].Symbol
	})
}
