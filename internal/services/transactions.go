package services

import (
	"context"
	"fmt"
	"log/slog"

	"saldo/internal/core"
	"saldo/internal/storage"
)

// TransactionService runs the balance mutation protocol. Each command executes
// as one atomic unit: the transaction row and every balance it affects commit
// together or not at all.
type TransactionService struct {
	repo        UnitOfWork
	publisher   ChangePublisher
	invalidator Invalidator
	now         Clock
}

func NewTransactionService(repo UnitOfWork, publisher ChangePublisher, invalidator Invalidator) *TransactionService {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	return &TransactionService{
		repo:        repo,
		publisher:   publisher,
		invalidator: invalidator,
		now:         systemClock,
	}
}

// WithClock replaces the time source.
func (s *TransactionService) WithClock(now Clock) *TransactionService {
	s.now = now
	return s
}

// Create validates in, stores the transaction and applies its effect to the account.
func (s *TransactionService) Create(ctx context.Context, owner core.UserID, in core.TransactionInput) (core.TransactionChange, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.TransactionChange{}, err
	}

	now := s.now()
	var change core.TransactionChange
	err := s.repo.Atomic(ctx, func(st *storage.Store) error {
		if err := s.checkReferences(ctx, st, owner, in); err != nil {
			return err
		}
		tx, err := st.CreateTransaction(ctx, owner, in, now)
		if err != nil {
			return err
		}
		balance, err := st.ApplyToBalance(ctx, owner, tx.AccountID, tx.Type, tx.Amount, now)
		if err != nil {
			return err
		}
		change = core.TransactionChange{
			Kind:        core.Created,
			Transaction: tx,
			Touched:     []string{"type", "account_id", "category_id", "amount", "date", "description"},
			Balances:    []core.AccountBalance{{AccountID: tx.AccountID, Balance: balance}},
			At:          now,
		}
		return nil
	})
	if err != nil {
		return core.TransactionChange{}, core.Transient("create transaction", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"user_id", owner,
		"transaction_id", change.Transaction.ID,
		"account_id", change.Transaction.AccountID,
		"type", change.Transaction.Type,
		"amount", change.Transaction.Amount.String())

	s.afterCommit(ctx, owner, change)
	return change, nil
}

// Update reverts the old {account, type, amount} effect, rewrites the row and
// applies the new effect. The new account may differ from the old one.
func (s *TransactionService) Update(ctx context.Context, owner core.UserID, id core.TransactionID, in core.TransactionInput) (core.TransactionChange, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.TransactionChange{}, err
	}

	now := s.now()
	var change core.TransactionChange
	err := s.repo.Atomic(ctx, func(st *storage.Store) error {
		old, err := st.GetTransaction(ctx, owner, id)
		if err != nil {
			return err
		}
		if err := s.checkReferences(ctx, st, owner, in); err != nil {
			return err
		}

		oldBalance, err := st.RevertFromBalance(ctx, owner, old.AccountID, old.Type, old.Amount, now)
		if err != nil {
			return err
		}
		tx, err := st.UpdateTransaction(ctx, owner, id, in, now)
		if err != nil {
			return err
		}
		newBalance, err := st.ApplyToBalance(ctx, owner, tx.AccountID, tx.Type, tx.Amount, now)
		if err != nil {
			return err
		}

		balances := []core.AccountBalance{{AccountID: tx.AccountID, Balance: newBalance}}
		if old.AccountID != tx.AccountID {
			balances = []core.AccountBalance{
				{AccountID: old.AccountID, Balance: oldBalance},
				{AccountID: tx.AccountID, Balance: newBalance},
			}
		}
		change = core.TransactionChange{
			Kind:        core.Updated,
			Transaction: tx,
			Touched:     core.TouchedFields(old, in),
			Balances:    balances,
			At:          now,
		}
		return nil
	})
	if err != nil {
		return core.TransactionChange{}, core.Transient("update transaction", err)
	}

	slog.InfoContext(ctx, "Transaction updated",
		"user_id", owner,
		"transaction_id", id,
		"account_id", change.Transaction.AccountID,
		"touched", change.Touched,
		"amount", change.Transaction.Amount.String())

	s.afterCommit(ctx, owner, change)
	return change, nil
}

// Delete reverts the transaction's effect and removes the row.
func (s *TransactionService) Delete(ctx context.Context, owner core.UserID, id core.TransactionID) (core.TransactionChange, error) {
	now := s.now()
	var change core.TransactionChange
	err := s.repo.Atomic(ctx, func(st *storage.Store) error {
		old, err := st.GetTransaction(ctx, owner, id)
		if err != nil {
			return err
		}
		balance, err := st.RevertFromBalance(ctx, owner, old.AccountID, old.Type, old.Amount, now)
		if err != nil {
			return err
		}
		if err := st.DeleteTransaction(ctx, owner, id); err != nil {
			return err
		}
		change = core.TransactionChange{
			Kind:        core.Deleted,
			Transaction: old,
			Balances:    []core.AccountBalance{{AccountID: old.AccountID, Balance: balance}},
			At:          now,
		}
		return nil
	})
	if err != nil {
		return core.TransactionChange{}, core.Transient("delete transaction", err)
	}

	slog.InfoContext(ctx, "Transaction deleted",
		"user_id", owner,
		"transaction_id", id,
		"account_id", change.Transaction.AccountID)

	s.afterCommit(ctx, owner, change)
	return change, nil
}

func (s *TransactionService) Get(ctx context.Context, owner core.UserID, id core.TransactionID) (core.Transaction, error) {
	tx, err := s.repo.Store().GetTransaction(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, core.Transient("get transaction", err)
	}
	return tx, nil
}

// ListFilter narrows List. Month requires Year; zero values mean no filter.
type ListFilter struct {
	AccountID core.AccountID
	Year      int
	Month     int
}

func (f ListFilter) Validate() error {
	if f.Month != 0 && (f.Month < 1 || f.Month > 12) {
		return core.FieldError("month", fmt.Errorf("must be between 1 and 12"))
	}
	if f.Month != 0 && f.Year == 0 {
		return core.FieldError("year", fmt.Errorf("required with month"))
	}
	if f.Year != 0 && (f.Year < 1900 || f.Year > 9999) {
		return core.FieldError("year", fmt.Errorf("out of range"))
	}
	return nil
}

// List returns the owner's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, owner core.UserID, f ListFilter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	filter := storage.TransactionFilter{AccountID: f.AccountID}
	switch {
	case f.Year != 0 && f.Month != 0:
		filter.From, filter.To = core.MonthBounds(f.Year, f.Month)
	case f.Year != 0:
		filter.From, filter.To = core.NewDate(f.Year, 1, 1), core.NewDate(f.Year, 12, 31)
	}
	txs, err := s.repo.Store().ListTransactions(ctx, owner, filter)
	if err != nil {
		return nil, core.Transient("list transactions", err)
	}
	return txs, nil
}

// checkReferences resolves the account and category of in through the owner
// scope, so a transaction can never point at another user's rows.
func (s *TransactionService) checkReferences(ctx context.Context, st *storage.Store, owner core.UserID, in core.TransactionInput) error {
	if _, err := st.GetAccount(ctx, owner, in.AccountID); err != nil {
		return resolveReference("account_id", err)
	}
	if in.CategoryID != nil {
		if _, err := st.GetCategory(ctx, owner, *in.CategoryID); err != nil {
			return resolveReference("category_id", err)
		}
	}
	return nil
}

// afterCommit invalidates cached views and publishes the change. Publishing
// failures are logged only: the ledger has already committed.
func (s *TransactionService) afterCommit(ctx context.Context, owner core.UserID, change core.TransactionChange) {
	s.invalidator.Invalidate(owner)

	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping ledger event")
		return
	}
	if err := s.publisher.PublishTransactionChange(ctx, change); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"transaction_id", change.Transaction.ID,
			"kind", change.Kind,
			"error", err)
	}
}
