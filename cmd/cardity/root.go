package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardity-org/cardity-wasm/internal/config"
	"github.com/cardity-org/cardity-wasm/internal/obslog"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"

	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cardity",
	Short: "Cardity protocol runtime",
	Long: `Cardity is a deterministic runtime for protocol documents:
self-describing JSON contracts with typed state, methods written in a
small embedded statement language, and events.

It loads a .car file, executes method calls against a durable state
store, and supports snapshotting the state and event log.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Cardity %s\n", Version)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		fmt.Printf("  Built:      %s\n", BuildTime)
	},
}

// loadConfig returns the configuration from --config, or defaults when
// the flag is unset.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(cfgFile)
}

// createLogger builds the logger described by the config, with
// --verbose forcing debug level.
func createLogger(cfg config.LoggingConfig) *obslog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	if cfg.Format == "json" {
		return obslog.NewJSONLogger(os.Stderr, level)
	}
	return obslog.NewTextLogger(os.Stderr, level)
}
