package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eternalApril/moonwire/internal/command"
	"github.com/eternalApril/moonwire/internal/config"
	"github.com/eternalApril/moonwire/internal/logger"
	"github.com/eternalApril/moonwire/internal/meta"
	"github.com/eternalApril/moonwire/internal/metrics"
	"github.com/eternalApril/moonwire/internal/server"
)

const shutdownTimeout = 5 * time.Second

// configDir is the directory searched for config.yaml
var configDir string

var rootCmd = &cobra.Command{
	Use:           "moonwire-server",
	Short:         "RESP2 server answering PING, ECHO and COMMAND",
	Version:       meta.GetInfo().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configDir, cmd.Flags())
		if err != nil {
			return err
		}

		return run(cmd.Context(), cfg)
	},
}

func init() {
	flags := rootCmd.Flags()

	flags.StringVar(&configDir, "config", "", "Directory containing config.yaml")
	flags.String("bind", "127.0.0.1", "The IP address to listen on")
	flags.Int("port", 6379, "The port to listen for client connections on")
	flags.Bool("reuseport", false, "Listen with SO_REUSEPORT")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "console", "Log format: console, json")
	flags.String("metrics-addr", "", "Serve prometheus metrics on this address, e.g. :9121")
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	log.Info("Moonwire starting",
		zap.String("version", meta.Version),
		zap.String("address", cfg.Server.Addr()),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()
	srv := server.New(cfg, command.NewRegistry(log), log, server.WithMetrics(reg))

	var metricsSrv *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			log.Info("metrics listening", zap.String("address", cfg.Metrics.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe(ctx)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, server.ErrServerClosed) {
			log.Error("listener error", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	// Restore default behavior on the interrupt signal
	stop()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Shutdown timed out, forcing exit", zap.Duration("timeout", shutdownTimeout), zap.Error(err))
	} else {
		log.Info("All connections closed gracefully")
	}

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}

	log.Info("Moonwire stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
