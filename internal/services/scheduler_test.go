package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"saldo/internal/core"
)

type countingReconciler struct {
	calls atomic.Int32
	err   error
}

func (c *countingReconciler) ReconcileAll(ctx context.Context) ([]core.Reconciliation, error) {
	c.calls.Add(1)
	return nil, c.err
}

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()
	if config.Interval != time.Hour {
		t.Errorf("expected Interval 1h, got %v", config.Interval)
	}
	if !config.RunOnStart {
		t.Error("expected RunOnStart to default to true")
	}
}

func TestNewReconcileScheduler_ZeroIntervalUsesDefault(t *testing.T) {
	s := NewReconcileScheduler(&countingReconciler{}, SchedulerConfig{})
	if s.config.Interval != time.Hour {
		t.Errorf("expected default interval, got %v", s.config.Interval)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running initially")
	}
}

func TestReconcileScheduler_StartTwice(t *testing.T) {
	s := NewReconcileScheduler(&countingReconciler{}, SchedulerConfig{Interval: time.Hour})
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer s.Stop(ctx)

	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting already running scheduler")
	}
}

func TestReconcileScheduler_StopNotRunning(t *testing.T) {
	s := NewReconcileScheduler(&countingReconciler{}, DefaultSchedulerConfig())
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestReconcileScheduler_RunsOnStartAndOnTick(t *testing.T) {
	rec := &countingReconciler{}
	s := NewReconcileScheduler(rec, SchedulerConfig{Interval: 10 * time.Millisecond, RunOnStart: true})
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for rec.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}
	if got := rec.calls.Load(); got < 3 {
		t.Errorf("expected at least 3 reconcile passes, got %d", got)
	}
	if s.Runs() != int(rec.calls.Load()) {
		t.Errorf("Runs() = %d, reconciler calls = %d", s.Runs(), rec.calls.Load())
	}
}

func TestReconcileScheduler_FailureKeepsLooping(t *testing.T) {
	rec := &countingReconciler{err: errors.New("database is locked")}
	s := NewReconcileScheduler(rec, SchedulerConfig{Interval: 10 * time.Millisecond, RunOnStart: true})
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for rec.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if rec.calls.Load() < 2 {
		t.Errorf("expected the loop to continue after a failed pass, got %d calls", rec.calls.Load())
	}
}

func TestReconcileScheduler_ContextCancelEndsLoop(t *testing.T) {
	rec := &countingReconciler{}
	s := NewReconcileScheduler(rec, SchedulerConfig{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	select {
	case <-s.doneCh:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after context cancellation")
	}
	if rec.calls.Load() != 0 {
		t.Errorf("RunOnStart=false should not reconcile before the first tick, got %d", rec.calls.Load())
	}
}

type blockingReconciler struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingReconciler) ReconcileAll(ctx context.Context) ([]core.Reconciliation, error) {
	close(b.started)
	<-b.release
	return nil, nil
}

func TestReconcileScheduler_StopAfterTimeoutCanBeRepeated(t *testing.T) {
	rec := &blockingReconciler{started: make(chan struct{}), release: make(chan struct{})}
	s := NewReconcileScheduler(rec, SchedulerConfig{Interval: time.Hour, RunOnStart: true})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-rec.started

	stopCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Stop(stopCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a timeout while a pass is running, got %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not report running once stopped")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	close(rec.release)
	select {
	case <-s.doneCh:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after the pass finished")
	}
}
