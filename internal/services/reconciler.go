package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"saldo/internal/core"
	"saldo/internal/storage"
)

// ReconcilerService verifies cached balances against the transaction history:
// expected = opening balance + signed sum of the account's transactions.
type ReconcilerService struct {
	repo        UnitOfWork
	invalidator Invalidator
	repair      bool
	parallelism int
	now         Clock
}

func NewReconcilerService(repo UnitOfWork, invalidator Invalidator, repair bool) *ReconcilerService {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	return &ReconcilerService{
		repo:        repo,
		invalidator: invalidator,
		repair:      repair,
		parallelism: 4,
		now:         systemClock,
	}
}

// ReconcileAccount checks one account. With repair enabled a drifted balance
// is rewritten to the expected value inside one atomic unit.
func (s *ReconcilerService) ReconcileAccount(ctx context.Context, owner core.UserID, id core.AccountID) (core.Reconciliation, error) {
	var rec core.Reconciliation
	err := s.repo.Atomic(ctx, func(st *storage.Store) error {
		acc, err := st.GetAccount(ctx, owner, id)
		if err != nil {
			return err
		}
		sum, err := st.LedgerSum(ctx, owner, id)
		if err != nil {
			return err
		}
		rec = core.Reconciliation{
			AccountID: id,
			UserID:    owner,
			Cached:    acc.Balance,
			Expected:  acc.OpeningBalance.Add(sum),
		}
		if rec.InSync() || !s.repair {
			return nil
		}
		if err := st.SetBalance(ctx, owner, id, rec.Expected, s.now()); err != nil {
			return err
		}
		rec.Repaired = true
		return nil
	})
	if err != nil {
		return core.Reconciliation{}, core.Transient("reconcile account", err)
	}

	switch {
	case rec.Repaired:
		s.invalidator.Invalidate(owner)
		slog.WarnContext(ctx, "Balance drift repaired",
			"user_id", owner, "account_id", id,
			"cached", rec.Cached.String(), "expected", rec.Expected.String())
	case !rec.InSync():
		slog.ErrorContext(ctx, "Balance drift detected",
			"user_id", owner, "account_id", id,
			"cached", rec.Cached.String(), "expected", rec.Expected.String(),
			"drift", rec.Drift().String())
	}
	return rec, nil
}

// ReconcileUser checks every account of owner.
func (s *ReconcilerService) ReconcileUser(ctx context.Context, owner core.UserID) ([]core.Reconciliation, error) {
	accounts, err := s.repo.Store().ListAccounts(ctx, owner)
	if err != nil {
		return nil, core.Transient("list accounts", err)
	}
	out := make([]core.Reconciliation, 0, len(accounts))
	for _, acc := range accounts {
		rec, err := s.ReconcileAccount(ctx, owner, acc.ID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted since it was listed.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReconcileAll checks every account of every user, a few users at a time,
// and returns only the accounts that were out of sync.
func (s *ReconcilerService) ReconcileAll(ctx context.Context) ([]core.Reconciliation, error) {
	users, err := s.repo.Store().ListUserIDs(ctx)
	if err != nil {
		return nil, core.Transient("list users", err)
	}

	var (
		mu      sync.Mutex
		drifted []core.Reconciliation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, user := range users {
		g.Go(func() error {
			recs, err := s.ReconcileUser(gctx, user)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range recs {
				if !r.InSync() {
					drifted = append(drifted, r)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Reconciliation completed", "users", len(users), "drifted", len(drifted))
	return drifted, nil
}
