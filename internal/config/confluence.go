package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfluenceWeights allocates the overall symbol score across the
// cross-cutting evidence domains. Weights apply to the domains present in a
// snapshot; absent domains are excluded and the remainder renormalized.
type ConfluenceWeights struct {
	MTFAlignment      float64 `yaml:"mtf_alignment"`      // 0.35
	FlowBias          float64 `yaml:"flow_bias"`          // 0.30
	KeyLevelProximity float64 `yaml:"key_level_proximity"` // 0.20
	GammaPositioning  float64 `yaml:"gamma_positioning"`  // 0.15
}

// ConfluenceConfig is the confluence aggregator's configuration surface.
type ConfluenceConfig struct {
	Weights ConfluenceWeights `yaml:"weights"`
	// Timeframes is the fixed timeframe set polled for trend alignment.
	Timeframes []string `yaml:"timeframes"`
	// TopFactorsPerDetector bounds how many contributing factors each gated
	// detector reports into the confluence components.
	TopFactorsPerDetector int `yaml:"top_factors_per_detector"`
}

// DefaultConfluenceConfig returns the built-in confluence configuration.
func DefaultConfluenceConfig() *ConfluenceConfig {
	return &ConfluenceConfig{
		Weights: ConfluenceWeights{
			MTFAlignment:      0.35,
			FlowBias:          0.30,
			KeyLevelProximity: 0.20,
			GammaPositioning:  0.15,
		},
		Timeframes:            []string{"5m", "15m", "1h", "4h", "1d"},
		TopFactorsPerDetector: 2,
	}
}

// LoadConfluenceConfig reads confluence configuration from a YAML file,
// keeping built-in defaults for omitted fields.
func LoadConfluenceConfig(path string) (*ConfluenceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read confluence config %s: %w", path, err)
	}

	cfg := DefaultConfluenceConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse confluence YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid confluence config: %w", err)
	}
	return cfg, nil
}

// Validate checks weights and timeframes. Weights should sum to ~1.0; the
// aggregator renormalizes anyway, so only gross misconfiguration errors out.
func (c *ConfluenceConfig) Validate() error {
	w := c.Weights
	for name, v := range map[string]float64{
		"mtf_alignment":       w.MTFAlignment,
		"flow_bias":           w.FlowBias,
		"key_level_proximity": w.KeyLevelProximity,
		"gamma_positioning":   w.GammaPositioning,
	} {
		if v < 0 {
			return fmt.Errorf("confluence weight %s is negative: %.3f", name, v)
		}
	}
	sum := w.MTFAlignment + w.FlowBias + w.KeyLevelProximity + w.GammaPositioning
	if sum <= 0 {
		return fmt.Errorf("confluence weights sum to %.3f, need a positive total", sum)
	}
	if math.Abs(sum-1.0) > 0.25 {
		return fmt.Errorf("confluence weights sum to %.3f, expected ~1.0", sum)
	}
	if len(c.Timeframes) == 0 {
		return fmt.Errorf("at least one timeframe is required")
	}
	if c.TopFactorsPerDetector < 1 {
		return fmt.Errorf("top_factors_per_detector %d must be >= 1", c.TopFactorsPerDetector)
	}
	return nil
}
