package sheets

import (
	"context"
	"errors"
	"time"

	"saldo/internal/core"
)

// Ports for outbound adapters.
type (
	ActivityExporter interface {
		AppendActivity(ctx context.Context, row ActivityRow) (rowRef string, err error)
	}

	// EventIndex reports whether an event was already exported, so a
	// redelivered event does not produce a second row.
	EventIndex interface {
		HasEvent(ctx context.Context, eventID string) (bool, error)
	}
)

// ActivityRow is one line of the exported activity log.
type ActivityRow struct {
	EventID       string
	At            time.Time
	Kind          core.ChangeKind
	UserID        core.UserID
	TransactionID core.TransactionID
	Date          core.Date
	Type          core.EntryType
	AccountID     core.AccountID
	CategoryID    *core.CategoryID
	Amount        core.Money
	Description   string
}

// NewActivityRow describes the transaction tx as affected by an event.
func NewActivityRow(eventID string, kind core.ChangeKind, at time.Time, tx core.Transaction) ActivityRow {
	return ActivityRow{
		EventID:       eventID,
		At:            at.UTC(),
		Kind:          kind,
		UserID:        tx.UserID,
		TransactionID: tx.ID,
		Date:          tx.Date,
		Type:          tx.Type,
		AccountID:     tx.AccountID,
		CategoryID:    tx.CategoryID,
		Amount:        tx.Amount,
		Description:   tx.Description,
	}
}

func (r ActivityRow) Validate() error {
	if r.EventID == "" {
		return errors.New("missing event id")
	}
	switch r.Kind {
	case core.Created, core.Updated, core.Deleted:
	default:
		return errors.New("unknown event kind")
	}
	if r.UserID <= 0 {
		return errors.New("missing user id")
	}
	return nil
}
