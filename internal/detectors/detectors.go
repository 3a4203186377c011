// Package detectors holds the registered setup archetypes. Every detector
// follows the same two-stage contract: an ordered, short-circuiting hard
// gate, then a declarative list of weighted scoring factors. Thresholds are
// tuned constants owned by the config package.
package detectors

import (
	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/detect"
	"github.com/edgescan/edgescan/internal/snapshot"
)

// NewDefaultRegistry builds the standard detector set in evaluation order.
func NewDefaultRegistry(cfg *config.DetectorThresholds) (*detect.Registry, error) {
	return detect.NewRegistry(
		NewMeanReversionLong(cfg),
		NewMeanReversionShort(cfg),
		NewMomentumBreakoutLong(cfg),
		NewMomentumBreakdownShort(cfg),
		NewVWAPReclaimLong(cfg),
		NewSqueezeBreakout(cfg),
		NewFlowMomentumLong(cfg),
		NewGammaSqueezeLong(cfg),
	)
}

const neutralScore = 50.0

// bearishFlowVeto fails the gate when institutional flow is heavily stacked
// against a long setup: bearish bias with several opposing block prints, or
// sustained sweep pressure alongside a high flow score. A missing flow
// summary cannot veto; the step is skipped instead.
func bearishFlowVeto(t *detect.Trail, flow *snapshot.FlowSummary, cfg config.FlowVetoThresholds) bool {
	if flow == nil {
		t.Skip("flow_veto", "flow summary unavailable")
		return true
	}
	if flow.Bias != snapshot.FlowBearish {
		return t.Check("flow_veto", true, string(flow.Bias), "bearish",
			"flow bias %s is not adverse", flow.Bias)
	}
	heavy := flow.BlockCount >= cfg.BlockCount ||
		(flow.SweepCount >= cfg.SweepCount && flow.FlowScore.Or(0) >= cfg.FlowScore)
	return t.Check("flow_veto", !heavy,
		map[string]interface{}{"blocks": flow.BlockCount, "sweeps": flow.SweepCount, "score": flow.FlowScore.Or(0)},
		map[string]interface{}{"blocks": cfg.BlockCount, "sweeps": cfg.SweepCount, "score": cfg.FlowScore},
		"bearish flow: %d blocks, %d sweeps, score %.0f", flow.BlockCount, flow.SweepCount, flow.FlowScore.Or(0))
}

// bullishFlowVeto mirrors bearishFlowVeto for short setups.
func bullishFlowVeto(t *detect.Trail, flow *snapshot.FlowSummary, cfg config.FlowVetoThresholds) bool {
	if flow == nil {
		t.Skip("flow_veto", "flow summary unavailable")
		return true
	}
	if flow.Bias != snapshot.FlowBullish {
		return t.Check("flow_veto", true, string(flow.Bias), "bullish",
			"flow bias %s is not adverse", flow.Bias)
	}
	heavy := flow.BlockCount >= cfg.BlockCount ||
		(flow.SweepCount >= cfg.SweepCount && flow.FlowScore.Or(0) >= cfg.FlowScore)
	return t.Check("flow_veto", !heavy,
		map[string]interface{}{"blocks": flow.BlockCount, "sweeps": flow.SweepCount, "score": flow.FlowScore.Or(0)},
		map[string]interface{}{"blocks": cfg.BlockCount, "sweeps": cfg.SweepCount, "score": cfg.FlowScore},
		"bullish flow: %d blocks, %d sweeps, score %.0f", flow.BlockCount, flow.SweepCount, flow.FlowScore.Or(0))
}

// regimeTableScore looks the snapshot regime up in a suitability table,
// returning the neutral midpoint when the regime is unknown.
func regimeTableScore(s *snapshot.Snapshot, table map[snapshot.Regime]float64) float64 {
	if score, ok := table[s.Regime]; ok {
		return score
	}
	return neutralScore
}

// relVolumeScore maps relative volume to a sub-score. Higher participation
// scores higher; an absent reading is neutral, never zero.
func relVolumeScore(s *snapshot.Snapshot) float64 {
	if !s.RelVolume.Valid {
		return neutralScore
	}
	rv := s.RelVolume.Value
	switch {
	case rv >= 3.0:
		return 95
	case rv >= 2.0:
		return 85
	case rv >= 1.5:
		return 70
	case rv >= 1.0:
		return 55
	default:
		return 40
	}
}
