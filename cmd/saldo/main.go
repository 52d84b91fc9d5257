package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"saldo/internal/cli"
	apphttp "saldo/internal/http"
	applog "saldo/internal/log"
)

func main() {
	cfg, logger := cli.MustLoad(applog.ComponentApp)

	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	ledger, _, err := cli.InitLedger(startCtx, logger, cfg, false)
	cancelStart()
	if err != nil {
		logger.Error("Failed to initialize ledger", "error", err)
		os.Exit(1)
	}
	if ledger.Events == nil {
		logger.Info("Ledger events disabled, transactions are not published")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Users:        ledger.Users,
		Accounts:     ledger.Accounts,
		Categories:   ledger.Categories,
		Transactions: ledger.Transactions,
		Dashboard:    ledger.Dashboard,
		Reconciler:   ledger.Reconciler,
		Storage:      ledger.Repo,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	})
	srv.MaxHeaderBytes = 1 << 16

	_, stop, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := ledger.Cleanup(); err != nil {
			logger.Error("Cleanup failed", "error", err)
		}
	})

	logger.Info("Starting saldo server",
		"port", cfg.Port,
		"db", cfg.SQLiteDBPath,
		"events", ledger.Events != nil,
		"rate_limit_per_minute", cfg.RateLimitPerMinute)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		stop()
		<-done
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
