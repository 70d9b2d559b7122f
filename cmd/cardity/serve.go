package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cardity-org/cardity-wasm/internal/config"
	"github.com/cardity-org/cardity-wasm/internal/obslog"
	"github.com/cardity-org/cardity-wasm/internal/rpcserver"
	"github.com/cardity-org/cardity-wasm/internal/telemetry/metricsx"
	"github.com/cardity-org/cardity-wasm/internal/telemetry/tracing"
	"github.com/cardity-org/cardity-wasm/pkg/runtime"
)

var (
	serveListenAddr string
	serveStateFile  string
)

var serveCmd = &cobra.Command{
	Use:   "serve <car_file>",
	Short: "Load a protocol and serve it over gRPC",
	Long: `Load a protocol document and expose it to remote callers over gRPC.

The server runs until interrupted (Ctrl+C) or it receives a termination
signal. When --state is given, state is loaded from the file at startup
and saved back on shutdown.

Example:
  cardity serve counter.car --listen 127.0.0.1:26659`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListenAddr, "listen", "", "gRPC listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveStateFile, "state", "", "state file to load at startup and save on shutdown")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := createLogger(cfg.Logging)

	opts, cleanup, err := telemetryOptions(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	orch, err := buildOrchestrator(cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer orch.Close()

	if err := loadProtocol(orch, args[0]); err != nil {
		return err
	}
	if serveStateFile != "" {
		if _, statErr := os.Stat(serveStateFile); statErr == nil {
			if err := orch.LoadStateFromFile(serveStateFile); err != nil {
				return err
			}
		}
	}

	rpcCfg := rpcserver.DefaultConfig()
	if cfg.RPC.ListenAddr != "" {
		rpcCfg.ListenAddr = cfg.RPC.ListenAddr
	}
	if cfg.RPC.MaxRecvMsgSize > 0 {
		rpcCfg.MaxRecvMsgSize = cfg.RPC.MaxRecvMsgSize
	}
	if serveListenAddr != "" {
		rpcCfg.ListenAddr = serveListenAddr
	}

	srv := rpcserver.NewServer(orch, rpcCfg, logger)
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	logger.Info("serving protocol",
		obslog.Path(args[0]),
		"listen", srv.Addr().String())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")

	if serveStateFile != "" {
		if err := orch.SaveStateToFile(serveStateFile); err != nil {
			return err
		}
	}
	return nil
}

// telemetryOptions assembles the optional metrics and tracing wiring,
// returning runtime options plus a cleanup func.
func telemetryOptions(cfg *config.Config, logger *obslog.Logger) ([]runtime.Option, func(), error) {
	var opts []runtime.Option
	cleanup := func() {}

	if cfg.Metrics.Enabled {
		metrics := metricsx.NewPrometheusMetrics(cfg.Metrics.Namespace)
		opts = append(opts, runtime.WithMetrics(metrics))

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.ListenAddr, mux); err != nil {
				logger.Error("metrics server stopped", obslog.Error(err))
			}
		}()
		logger.Info("metrics enabled", "listen", cfg.Metrics.ListenAddr)
	}

	if cfg.Tracing.Exporter != "none" && cfg.Tracing.Exporter != "" {
		provider, err := tracing.NewProvider(tracing.ProviderConfig{
			ServiceName:    "cardity",
			ServiceVersion: Version,
			Exporter:       cfg.Tracing.Exporter,
			SampleRate:     cfg.Tracing.SampleRate,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("creating tracer provider: %w", err)
		}
		opts = append(opts, runtime.WithTracer(tracing.NewTracer("cardity", provider)))
		cleanup = func() {
			_ = tracing.Shutdown(context.Background(), provider)
		}
	}

	return opts, cleanup, nil
}
