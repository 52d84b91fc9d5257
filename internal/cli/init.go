// Package cli holds the start-up steps shared by cmd/saldo, cmd/saldo-worker
// and cmd/saldoctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"saldo/internal/backend"
	"saldo/internal/config"
	applog "saldo/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger for component at the configured
// level and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     cfg.SlogLevel(),
		Component: component,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadConfig loads .env and the environment, then validates. The returned
// error lists every problem found.
func LoadConfig() (*config.Config, error) {
	LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MustLoad loads configuration and the logger, exiting the process on invalid configuration.
func MustLoad(component string) (*config.Config, *applog.Logger) {
	cfg, err := LoadConfig()
	logger := SetupLogger(cfg, component)
	if err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitLedger builds the ledger from the application config. requireEvents
// makes an unreachable AMQP broker fatal instead of disabling events.
func InitLedger(ctx context.Context, logger *applog.Logger, cfg *config.Config, requireEvents bool) (*backend.Ledger, backend.Config, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, bcfg, fmt.Errorf("backend config: %w", err)
	}
	bcfg.RequireEvents = requireEvents
	ledger, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateLedger(ctx, bcfg)
	if err != nil {
		return nil, bcfg, err
	}
	return ledger, bcfg, nil
}

// GracefulShutdown returns a context cancelled on SIGINT, SIGTERM or a call
// to stop. Then cleanup runs with a context bounded by timeout, and done is
// closed when it returns.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (ctx context.Context, stop context.CancelFunc, done <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, cancel, finished
}
