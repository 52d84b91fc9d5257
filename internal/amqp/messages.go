package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"saldo/internal/core"
)

// LedgerEventMessage announces a committed transaction mutation.
// Consumers use AccountIDs to know which cached balances to verify.
type LedgerEventMessage struct {
	EventID       string             `json:"event_id"`
	Kind          core.ChangeKind    `json:"kind"`
	UserID        core.UserID        `json:"user_id"`
	TransactionID core.TransactionID `json:"transaction_id"`
	AccountIDs    []core.AccountID   `json:"account_ids"`
	Snapshot      core.Transaction   `json:"snapshot"`
	Timestamp     time.Time          `json:"timestamp"`
}

// NewLedgerEventMessage builds the event for a committed change.
func NewLedgerEventMessage(change core.TransactionChange) *LedgerEventMessage {
	ts := change.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerEventMessage{
		EventID:       uuid.NewString(),
		Kind:          change.Kind,
		UserID:        change.Transaction.UserID,
		TransactionID: change.Transaction.ID,
		AccountIDs:    change.AccountIDs(),
		Snapshot:      change.Transaction,
		Timestamp:     ts.UTC(),
	}
}

// Validate rejects events a consumer cannot act on.
func (m *LedgerEventMessage) Validate() error {
	if _, err := uuid.Parse(m.EventID); err != nil {
		return fmt.Errorf("invalid event id %q: %w", m.EventID, err)
	}
	switch m.Kind {
	case core.Created, core.Updated, core.Deleted:
	default:
		return fmt.Errorf("unknown event kind %q", m.Kind)
	}
	if m.UserID <= 0 {
		return fmt.Errorf("missing user id")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes and validates a message body.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
