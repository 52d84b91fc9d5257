package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/sheets"
)

// AccountReconciler is satisfied by *services.ReconcilerService.
type AccountReconciler interface {
	ReconcileAccount(ctx context.Context, owner core.UserID, id core.AccountID) (core.Reconciliation, error)
}

// EventWorker handles ledger events: it verifies the balance of every
// affected account and appends the change to the activity export.
type EventWorker struct {
	reconciler AccountReconciler
	exporter   sheets.ActivityExporter
	index      sheets.EventIndex
}

// NewEventWorker creates the worker. When the exporter also implements
// sheets.EventIndex, events already exported are not appended twice.
func NewEventWorker(reconciler AccountReconciler, exporter sheets.ActivityExporter) *EventWorker {
	w := &EventWorker{reconciler: reconciler, exporter: exporter}
	if idx, ok := exporter.(sheets.EventIndex); ok {
		w.index = idx
	}
	return w
}

// Prepare runs once before consuming. Exporters that keep a header row get it written here.
func (w *EventWorker) Prepare(ctx context.Context) error {
	hw, ok := w.exporter.(interface {
		EnsureHeader(ctx context.Context) error
	})
	if !ok {
		return nil
	}
	if err := hw.EnsureHeader(ctx); err != nil {
		return fmt.Errorf("prepare activity export: %w", err)
	}
	return nil
}

// HandleLedgerEvent processes a single ledger event from AMQP. A returned
// error makes the consumer requeue the event; both steps are idempotent.
func (w *EventWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.DebugContext(ctx, "Verifying accounts touched by ledger event",
		"event_id", msg.EventID,
		"transaction_id", msg.TransactionID,
		"accounts", len(msg.AccountIDs))

	for _, id := range msg.AccountIDs {
		if err := w.reconcile(ctx, msg.UserID, id); err != nil {
			return err
		}
	}

	if err := w.export(ctx, msg); err != nil {
		return err
	}
	return nil
}

func (w *EventWorker) reconcile(ctx context.Context, owner core.UserID, id core.AccountID) error {
	rec, err := w.reconciler.ReconcileAccount(ctx, owner, id)
	switch {
	case errors.Is(err, core.ErrNotFound):
		// The account (or its user) was deleted after the event was published.
		slog.InfoContext(ctx, "Skipping reconciliation of removed account", "user_id", owner, "account_id", id)
		return nil
	case err != nil:
		return fmt.Errorf("reconcile account %d: %w", id, err)
	}
	slog.DebugContext(ctx, "Account verified",
		"account_id", id,
		"in_sync", rec.InSync(),
		"repaired", rec.Repaired)
	return nil
}

func (w *EventWorker) export(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	if w.exporter == nil {
		return nil
	}
	if w.index != nil {
		seen, err := w.index.HasEvent(ctx, msg.EventID)
		if err != nil {
			return fmt.Errorf("check exported events: %w", err)
		}
		if seen {
			slog.InfoContext(ctx, "Ledger event already exported", "event_id", msg.EventID)
			return nil
		}
	}

	row := sheets.NewActivityRow(msg.EventID, msg.Kind, msg.Timestamp, msg.Snapshot)
	ref, err := w.exporter.AppendActivity(ctx, row)
	if err != nil {
		return fmt.Errorf("export activity: %w", err)
	}
	slog.InfoContext(ctx, "Ledger event exported",
		"event_id", msg.EventID,
		"row_ref", ref)
	return nil
}
