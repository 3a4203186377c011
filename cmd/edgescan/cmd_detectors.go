package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/edgescan/edgescan/internal/detectors"
)

// detectorsCmd lists the registered detector roster
var detectorsCmd = &cobra.Command{
	Use:   "detectors",
	Short: "List the detector roster with gates and factor weights",
	RunE:  runDetectors,
}

var detectorsThresholds string

func init() {
	rootCmd.AddCommand(detectorsCmd)
	detectorsCmd.Flags().StringVar(&detectorsThresholds, "thresholds", "", "Detector thresholds YAML (defaults when empty)")
}

func runDetectors(cmd *cobra.Command, args []string) error {
	thresholds, err := loadThresholds(detectorsThresholds)
	if err != nil {
		return err
	}
	registry, err := detectors.NewDefaultRegistry(thresholds)
	if err != nil {
		return fmt.Errorf("building detector registry: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tDIRECTION\tASSET CLASSES\tOPTIONS\tFACTORS")
	for _, d := range registry.All() {
		classes := "all"
		if len(d.AssetClasses()) > 0 {
			parts := make([]string, 0, len(d.AssetClasses()))
			for _, c := range d.AssetClasses() {
				parts = append(parts, string(c))
			}
			classes = strings.Join(parts, ",")
		}
		options := "-"
		if d.RequiresOptionsData() {
			options = "required"
		}
		factors := make([]string, 0, len(d.Factors()))
		for _, f := range d.Factors() {
			factors = append(factors, fmt.Sprintf("%s(%.2f)", f.Name, f.Weight))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.Type(), d.Direction(), classes, options, strings.Join(factors, " "))
	}
	return w.Flush()
}
