package main

import (
	"context"
	"errors"
	"os"
	"time"

	"saldo/internal/backend"
	"saldo/internal/cli"
	applog "saldo/internal/log"
	"saldo/internal/services"
	"saldo/internal/worker"
)

func main() {
	cfg, logger := cli.MustLoad(applog.ComponentWorker)
	logger.Info("Starting saldo-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	ledger, bcfg, err := cli.InitLedger(startCtx, logger, cfg, true)
	if err != nil {
		cancelStart()
		logger.Error("Failed to initialize ledger", "error", err)
		os.Exit(1)
	}

	exporter, err := backend.NewFactory(logger.WithComponent(applog.ComponentSheets).Logger).CreateExporter(startCtx, bcfg)
	if err != nil {
		cancelStart()
		ledger.Cleanup()
		logger.Error("Failed to initialize activity exporter", "error", err)
		os.Exit(1)
	}

	eventWorker := worker.NewEventWorker(ledger.Reconciler, exporter)
	if err := eventWorker.Prepare(startCtx); err != nil {
		// Rows can still be appended without a header.
		logger.Warn("Failed to prepare activity export", "error", err)
	}
	cancelStart()

	scheduler := services.NewReconcileScheduler(ledger.Reconciler, services.SchedulerConfig{
		Interval:   cfg.ReconcileInterval,
		RunOnStart: true,
	})

	ctx, stop, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		logger.Info("Shutting down worker...")
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn("Reconcile scheduler did not stop in time", "error", err)
		}
		if err := ledger.Cleanup(); err != nil {
			logger.Error("Cleanup failed", "error", err)
		}
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start reconcile scheduler", "error", err)
		stop()
	}

	go func() {
		err := ledger.Events.ConsumeLedgerEvents(ctx, eventWorker.HandleLedgerEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
		stop()
	}()

	logger.Info("Worker running",
		"queue", cfg.AMQPQueue,
		"exporter", bcfg.Exporter,
		"reconcile_interval", cfg.ReconcileInterval,
		"reconcile_repair", cfg.ReconcileRepair)
	<-done
}
