package confluence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/scoring"
	"github.com/edgescan/edgescan/internal/snapshot"
)

var testTime = time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)

func fullSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Symbol:    "NVDA",
		Timestamp: testTime,
		Price:     snapshot.F(120),
		MTF: map[string]snapshot.TrendReading{
			"5m":  {Direction: snapshot.TrendUp},
			"15m": {Direction: snapshot.TrendUp},
			"1h":  {Direction: snapshot.TrendUp},
			"4h":  {Direction: snapshot.TrendSideways},
			"1d":  {Direction: snapshot.TrendUp},
		},
		Flow: &snapshot.FlowSummary{
			Bias:             snapshot.FlowBullish,
			FlowScore:        snapshot.F(75),
			SweepCount:       4,
			BlockCount:       2,
			BuyPressureRatio: snapshot.F(0.7),
		},
		Levels: &snapshot.KeyLevels{
			SupportDistancePct:    snapshot.F(0.4),
			ResistanceDistancePct: snapshot.F(2.5),
		},
		Gamma: &snapshot.GammaProfile{
			FlipLevel: snapshot.F(115),
			CallWall:  snapshot.F(126),
		},
	}
}

func TestAggregateAllDomainsPresent(t *testing.T) {
	agg := NewAggregator(config.DefaultConfluenceConfig())
	score := agg.Aggregate(fullSnapshot(), nil)

	assert.Equal(t, "NVDA", score.Symbol)
	assert.Equal(t, testTime, score.Timestamp)

	c := score.Components
	assert.Equal(t, StatusFresh, c.MTFAlignment.Status)
	assert.Equal(t, StatusFresh, c.FlowBias.Status)
	assert.Equal(t, StatusFresh, c.KeyLevelProximity.Status)
	assert.Equal(t, StatusFresh, c.GammaPositioning.Status)

	// All domains included: effective weights are the configured ones and sum
	// to 1.
	sum := c.MTFAlignment.Weight + c.FlowBias.Weight + c.KeyLevelProximity.Weight + c.GammaPositioning.Weight
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 0.35, c.MTFAlignment.Weight, 1e-9)

	// Four of five timeframes agree upward: a bullish read all around.
	assert.InDelta(t, 0.8, c.MTFAlignment.AlignmentFraction, 1e-9)
	assert.Greater(t, score.OverallScore, 60.0)
}

func TestAggregateExcludesAbsentDomains(t *testing.T) {
	agg := NewAggregator(config.DefaultConfluenceConfig())

	s := fullSnapshot()
	s.Levels = nil
	s.Gamma = nil

	score := agg.Aggregate(s, nil)
	c := score.Components

	assert.Equal(t, StatusAbsent, c.KeyLevelProximity.Status)
	assert.Equal(t, StatusAbsent, c.GammaPositioning.Status)
	assert.Equal(t, 0.0, c.KeyLevelProximity.Weight)
	assert.Equal(t, 0.0, c.GammaPositioning.Weight)

	// Remaining weights renormalize: 0.35/0.65 and 0.30/0.65.
	assert.InDelta(t, 0.35/0.65, c.MTFAlignment.Weight, 1e-9)
	assert.InDelta(t, 0.30/0.65, c.FlowBias.Weight, 1e-9)

	want := c.MTFAlignment.Score*c.MTFAlignment.Weight + c.FlowBias.Score*c.FlowBias.Weight
	assert.InDelta(t, want, score.OverallScore, 1e-9)
}

func TestAggregateNoDomainsIsNeutral(t *testing.T) {
	agg := NewAggregator(config.DefaultConfluenceConfig())
	score := agg.Aggregate(&snapshot.Snapshot{Symbol: "XYZ", Timestamp: testTime}, nil)

	// No evidence is neutral, never zero: an empty symbol must not sink to
	// the bottom of the ranking below symbols with genuinely bad reads.
	assert.Equal(t, 50.0, score.OverallScore)
	assert.Equal(t, StatusAbsent, score.Components.MTFAlignment.Status)
}

func TestMTFStaleHandling(t *testing.T) {
	agg := NewAggregator(config.DefaultConfluenceConfig())

	t.Run("stale timeframes are flagged but fresh ones vote", func(t *testing.T) {
		s := fullSnapshot()
		mtf := s.MTF
		mtf["1h"] = snapshot.TrendReading{Direction: snapshot.TrendDown, Stale: true}

		score := agg.Aggregate(s, nil)
		c := score.Components.MTFAlignment
		assert.Equal(t, StatusFresh, c.Status)
		assert.Equal(t, StatusStale, c.Timeframes["1h"].Status)
		// The stale downtick does not drag the vote: 3 up, 1 sideways.
		assert.InDelta(t, 0.75, c.AlignmentFraction, 1e-9)
	})

	t.Run("all stale degrades the domain to stale", func(t *testing.T) {
		s := fullSnapshot()
		for tf, r := range s.MTF {
			r.Stale = true
			s.MTF[tf] = r
		}
		score := agg.Aggregate(s, nil)
		assert.Equal(t, StatusStale, score.Components.MTFAlignment.Status)
		// Stale readings still produce a score rather than dropping the
		// domain entirely.
		assert.NotEqual(t, StatusAbsent, score.Components.MTFAlignment.Status)
	})

	t.Run("no readings at all is absent", func(t *testing.T) {
		s := fullSnapshot()
		s.MTF = nil
		score := agg.Aggregate(s, nil)
		assert.Equal(t, StatusAbsent, score.Components.MTFAlignment.Status)
	})
}

func TestFlowBiasDirection(t *testing.T) {
	agg := NewAggregator(config.DefaultConfluenceConfig())

	bull := fullSnapshot()
	bear := fullSnapshot()
	bear.Flow.Bias = snapshot.FlowBearish
	bear.Flow.BuyPressureRatio = snapshot.F(0.3)

	bullScore := agg.Aggregate(bull, nil).Components.FlowBias.Score
	bearScore := agg.Aggregate(bear, nil).Components.FlowBias.Score
	assert.Greater(t, bullScore, 50.0)
	assert.Less(t, bearScore, 50.0)
}

func TestKeyLevelLean(t *testing.T) {
	agg := NewAggregator(config.DefaultConfluenceConfig())

	nearSupport := fullSnapshot()
	nearResistance := fullSnapshot()
	nearResistance.Levels = &snapshot.KeyLevels{
		SupportDistancePct:    snapshot.F(3.0),
		ResistanceDistancePct: snapshot.F(0.3),
	}

	sup := agg.Aggregate(nearSupport, nil).Components.KeyLevelProximity.Score
	res := agg.Aggregate(nearResistance, nil).Components.KeyLevelProximity.Score
	assert.Greater(t, sup, 50.0)
	assert.Less(t, res, 50.0)
}

func TestPerDetectorTopFactors(t *testing.T) {
	cfg := config.DefaultConfluenceConfig()
	agg := NewAggregator(cfg)

	signals := []*scoring.Signal{{
		DetectorType: "mean_reversion_long",
		Confidence:   76.1,
		ContributingFactors: []scoring.FactorContribution{
			{Name: "rsi_oversold_depth", Score: 85},
			{Name: "atr_stretch", Score: 88},
			{Name: "relative_volume", Score: 50},
		},
	}}

	score := agg.Aggregate(fullSnapshot(), signals)
	require.Len(t, score.Components.PerDetectorTopFactors, 1)
	top := score.Components.PerDetectorTopFactors[0]
	assert.Equal(t, "mean_reversion_long", top.DetectorType)
	require.Len(t, top.TopFactors, cfg.TopFactorsPerDetector)
	assert.Equal(t, "atr_stretch", top.TopFactors[0].Name)
	assert.Equal(t, "rsi_oversold_depth", top.TopFactors[1].Name)
}
