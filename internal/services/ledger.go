// Package services holds the ledger use cases. Every operation takes the
// requesting user explicitly and goes through the owner-scoped storage.Store.
package services

import (
	"context"
	"errors"
	"time"

	"saldo/internal/core"
	"saldo/internal/storage"
)

// UnitOfWork is the storage the services need: scoped reads and an
// all-or-nothing execution primitive. *storage.SQLiteRepository implements it.
type UnitOfWork interface {
	Store() *storage.Store
	Atomic(ctx context.Context, fn func(*storage.Store) error) error
}

// ChangePublisher is notified after a transaction change has committed.
type ChangePublisher interface {
	PublishTransactionChange(ctx context.Context, change core.TransactionChange) error
}

// Invalidator drops every cached view derived from a user's ledger.
type Invalidator interface {
	Invalidate(user core.UserID)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(core.UserID) {}

// Clock returns the current time; tests replace it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// resolveReference turns a not-found lookup of an input reference into a
// field error. Missing and foreign rows produce the same message.
func resolveReference(field string, err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return &core.ValidationError{Fields: map[string]string{field: "select a valid choice"}}
	}
	return err
}
