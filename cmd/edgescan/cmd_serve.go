package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edgescan/edgescan/internal/telemetry"
)

// serveMetricsCmd runs the telemetry HTTP server
var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve Prometheus metrics and health endpoints",
	Long: `Run the telemetry HTTP server publishing /metrics (Prometheus
exposition) and /health until interrupted.`,
	RunE: runServeMetrics,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveMetricsCmd)
	serveMetricsCmd.Flags().StringVar(&serveAddr, "addr", ":9180", "Listen address")
}

func runServeMetrics(cmd *cobra.Command, args []string) error {
	metrics := telemetry.NewMetrics()
	server := telemetry.NewServer(serveAddr, metrics)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down telemetry server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}
