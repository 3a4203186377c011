package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
)

// rootCmd is the base command for the EdgeScan CLI
var rootCmd = &cobra.Command{
	Use:   "edgescan",
	Short: "EdgeScan composite opportunity scanner",
	Long: `EdgeScan evaluates per-symbol feature snapshots against a roster of
setup detectors, producing explainable signals with gate trails, weighted
confidence scores, and cross-cutting confluence scores for ranking.`,
	PersistentPreRunE: setupLogging,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("EdgeScan - composite opportunity scanner")
		fmt.Println("Use 'edgescan scan --input snapshots.json' to evaluate a universe")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console, json")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	if logFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
