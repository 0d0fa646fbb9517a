package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/freightsignal/sentinel/internal/config"
	"github.com/freightsignal/sentinel/internal/supervisor"
)

var (
	verbose bool
	version = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Continuously polls public data sources for transportation-industry financial distress signals",
	Long: `Sentinel polls PACER court feeds, SEC EDGAR full-text search, the FMCSA
carrier registry, and CourtListener for signals that a freight company is
entering financial distress. Detected events are classified, scored,
deduplicated, and published to a Redis broker as both a pub/sub broadcast
and a time-ordered durable log.`,
	Version: version,
	RunE:    run,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	log := newLogger(cfg.LogLevel)

	fmt.Fprint(os.Stderr, banner)
	log.Info().Str("version", version).Str("redis", cfg.RedisURL).Msg("sentinel starting")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := supervisor.Run(ctx, cfg, log); err != nil {
		return fmt.Errorf("sentinel: %w", err)
	}
	log.Info().Msg("sentinel stopped")
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
