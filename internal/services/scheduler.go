package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"saldo/internal/core"
)

// SchedulerConfig holds configuration for the reconcile scheduler
type SchedulerConfig struct {
	// Interval is how often every account is reconciled (default: 1h)
	Interval time.Duration

	// RunOnStart reconciles once immediately when the scheduler starts (default: true)
	RunOnStart bool
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:   time.Hour,
		RunOnStart: true,
	}
}

// FullReconciler is satisfied by *ReconcilerService.
type FullReconciler interface {
	ReconcileAll(ctx context.Context) ([]core.Reconciliation, error)
}

// ReconcileScheduler periodically reconciles every account in the ledger.
type ReconcileScheduler struct {
	reconciler FullReconciler
	config     SchedulerConfig

	mu      sync.Mutex
	running bool
	runs    int
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReconcileScheduler(reconciler FullReconciler, config SchedulerConfig) *ReconcileScheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	return &ReconcileScheduler{reconciler: reconciler, config: config}
}

// Start begins the scheduling loop. Returns an error if already running.
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("reconcile scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx, s.stopCh, s.doneCh)

	slog.InfoContext(ctx, "Reconcile scheduler started", "interval", s.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (s *ReconcileScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Reconcile scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reconcile scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *ReconcileScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Runs reports how many reconcile passes have completed.
func (s *ReconcileScheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *ReconcileScheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.runOnce(ctx)
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *ReconcileScheduler) runOnce(ctx context.Context) {
	start := time.Now()
	drifted, err := s.reconciler.ReconcileAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Scheduled reconciliation failed", "error", err)
	} else {
		slog.InfoContext(ctx, "Scheduled reconciliation finished",
			"drifted", len(drifted),
			"duration", time.Since(start).Round(time.Millisecond))
	}

	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
}
