package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edgescan/edgescan/internal/config"
	"github.com/edgescan/edgescan/internal/confluence"
	"github.com/edgescan/edgescan/internal/detectors"
	"github.com/edgescan/edgescan/internal/engine"
	"github.com/edgescan/edgescan/internal/scoring"
	"github.com/edgescan/edgescan/internal/snapshot"
	"github.com/edgescan/edgescan/internal/telemetry"
)

// scanCmd evaluates a universe of snapshots and prints ranked results
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Evaluate a snapshot universe and rank opportunities",
	Long: `Evaluate every snapshot in the input file against the detector
roster, score gated detectors, compute per-symbol confluence, and print the
results ranked by signal strength.

Examples:
  edgescan scan --input snapshots.json
  edgescan scan --input snapshots.json --format json
  edgescan scan --input snapshots.json --explain out/explain --min-confidence 60`,
	RunE: runScan,
}

var (
	scanInput         string
	scanFormat        string
	scanExplainDir    string
	scanMinConfidence float64
	scanThresholds    string
	scanConfluence    string
	scanWorkers       int
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanInput, "input", "", "Path to JSON snapshot universe (required)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "table", "Output format: table, json")
	scanCmd.Flags().StringVar(&scanExplainDir, "explain", "", "Directory for per-symbol explanation artifacts")
	scanCmd.Flags().Float64Var(&scanMinConfidence, "min-confidence", 0, "Hide signals below this confidence")
	scanCmd.Flags().StringVar(&scanThresholds, "thresholds", "", "Detector thresholds YAML (defaults when empty)")
	scanCmd.Flags().StringVar(&scanConfluence, "confluence-config", "", "Confluence weights YAML (defaults when empty)")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Worker count for batch evaluation (0 = NumCPU)")

	scanCmd.MarkFlagRequired("input")
}

func runScan(cmd *cobra.Command, args []string) error {
	snaps, err := loadSnapshots(scanInput)
	if err != nil {
		return err
	}
	log.Info().Int("symbols", len(snaps)).Str("input", scanInput).Msg("loaded snapshot universe")

	eng, err := buildEngine()
	if err != nil {
		return err
	}

	results, err := eng.EvaluateUniverse(context.Background(), snaps)
	if err != nil {
		return fmt.Errorf("evaluating universe: %w", err)
	}
	engine.RankBySignalStrength(results)

	if scanExplainDir != "" {
		if err := writeExplainArtifacts(scanExplainDir, results); err != nil {
			return err
		}
	}

	switch scanFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "table":
		printResultsTable(results)
		return nil
	default:
		return fmt.Errorf("unknown format %q", scanFormat)
	}
}

func buildEngine() (*engine.Engine, error) {
	thresholds, err := loadThresholds(scanThresholds)
	if err != nil {
		return nil, err
	}
	confCfg, err := loadConfluenceConfig(scanConfluence)
	if err != nil {
		return nil, err
	}

	registry, err := detectors.NewDefaultRegistry(thresholds)
	if err != nil {
		return nil, fmt.Errorf("building detector registry: %w", err)
	}

	opts := []engine.Option{engine.WithMetrics(telemetry.NewMetrics())}
	if scanWorkers > 0 {
		opts = append(opts, engine.WithWorkers(scanWorkers))
	}
	return engine.New(registry, scoring.NewAggregator(), confluence.NewAggregator(confCfg), opts...), nil
}

func loadThresholds(path string) (*config.DetectorThresholds, error) {
	if path == "" {
		return config.DefaultDetectorThresholds(), nil
	}
	t, err := config.LoadDetectorThresholds(path)
	if err != nil {
		return nil, fmt.Errorf("loading thresholds: %w", err)
	}
	return t, nil
}

func loadConfluenceConfig(path string) (*config.ConfluenceConfig, error) {
	if path == "" {
		return config.DefaultConfluenceConfig(), nil
	}
	c, err := config.LoadConfluenceConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading confluence config: %w", err)
	}
	return c, nil
}

func loadSnapshots(path string) ([]*snapshot.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	var snaps []*snapshot.Snapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return nil, fmt.Errorf("parsing snapshot file: %w", err)
	}
	return snaps, nil
}

func printResultsTable(results []*engine.SymbolResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSYMBOL\tBEST SIGNAL\tCONFIDENCE\tCONFLUENCE\tSIGNALS")
	rank := 0
	for _, r := range results {
		best := ""
		bestConf := 0.0
		shown := 0
		for _, sig := range r.Signals {
			if sig.Confidence < scanMinConfidence {
				continue
			}
			shown++
			if sig.Confidence > bestConf {
				bestConf = sig.Confidence
				best = fmt.Sprintf("%s %s", sig.DetectorType, sig.Direction)
			}
		}
		if shown == 0 {
			continue
		}
		rank++
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\t%.1f\t%d\n",
			rank, r.Symbol, best, bestConf, r.Confluence.OverallScore, shown)
	}
	w.Flush()
	if rank == 0 {
		fmt.Println("No signals passed their gates.")
	}
}

// writeExplainArtifacts writes one JSON file per symbol with the full gate
// trails, factor contributions and confluence breakdown.
func writeExplainArtifacts(dir string, results []*engine.SymbolResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating explain directory: %w", err)
	}
	for _, r := range results {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding explanation for %s: %w", r.Symbol, err)
		}
		path := filepath.Join(dir, r.Symbol+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	log.Info().Int("symbols", len(results)).Str("dir", dir).Msg("wrote explanation artifacts")
	return nil
}
