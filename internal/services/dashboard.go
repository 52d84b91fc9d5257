package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/cache"
	"saldo/internal/core"
)

const DefaultRecentTransactions = 5

// DashboardService computes the read-only summary figures. Results are cached
// per user until the TTL passes or the user's ledger changes.
type DashboardService struct {
	repo   UnitOfWork
	cache  cache.Cache[core.Dashboard]
	recent int
	now    Clock

	// generations counts invalidations per user. A result computed before an
	// invalidation is not cached.
	mu          sync.Mutex
	generations map[core.UserID]uint64
}

// NewDashboardService creates the service. A nil cache disables caching.
func NewDashboardService(repo UnitOfWork, c cache.Cache[core.Dashboard], recent int) *DashboardService {
	if recent <= 0 {
		recent = DefaultRecentTransactions
	}
	return &DashboardService{
		repo:        repo,
		cache:       c,
		recent:      recent,
		now:         systemClock,
		generations: make(map[core.UserID]uint64),
	}
}

// WithClock replaces the time source.
func (s *DashboardService) WithClock(now Clock) *DashboardService {
	s.now = now
	return s
}

// Summary returns the dashboard of owner for the current calendar month.
func (s *DashboardService) Summary(ctx context.Context, owner core.UserID) (core.Dashboard, error) {
	now := s.now()
	key := dashboardKey(owner, now)
	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			return d, nil
		}
	}

	gen := s.generation(owner)
	d, err := s.compute(ctx, owner, now)
	if err != nil {
		return core.Dashboard{}, err
	}
	if s.cache != nil && s.generation(owner) == gen {
		s.cache.Set(key, d)
		// An invalidation that raced the Set may have missed the new entry.
		if s.generation(owner) != gen {
			s.cache.Delete(key)
		}
	}
	return d, nil
}

func (s *DashboardService) generation(owner core.UserID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[owner]
}

func (s *DashboardService) compute(ctx context.Context, owner core.UserID, now time.Time) (core.Dashboard, error) {
	from, to := core.MonthRange(now)
	d := core.Dashboard{From: from, To: to}
	st := s.repo.Store()

	if _, err := st.GetUser(ctx, owner); err != nil {
		return core.Dashboard{}, core.Transient("dashboard", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := st.TotalActiveBalance(gctx, owner)
		d.TotalBalance = total
		return err
	})
	g.Go(func() error {
		income, err := st.SumByType(gctx, owner, core.Income, from, to)
		d.MonthlyIncome = income
		return err
	})
	g.Go(func() error {
		expenses, err := st.SumByType(gctx, owner, core.Expense, from, to)
		d.MonthlyExpenses = expenses
		return err
	})
	g.Go(func() error {
		recent, err := st.RecentTransactions(gctx, owner, s.recent)
		d.Recent = recent
		return err
	})
	g.Go(func() error {
		byCategory, err := st.ExpensesByCategory(gctx, owner, from, to)
		d.ExpensesByCategory = byCategory
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, core.Transient("dashboard", err)
	}

	d.MonthlyNet = d.MonthlyIncome.Sub(d.MonthlyExpenses)
	if d.Recent == nil {
		d.Recent = []core.Transaction{}
	}
	if d.ExpensesByCategory == nil {
		d.ExpensesByCategory = []core.CategoryAmount{}
	}
	return d, nil
}

// Invalidate drops every cached dashboard of user.
func (s *DashboardService) Invalidate(user core.UserID) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	s.generations[user]++
	s.mu.Unlock()
	s.cache.DeletePrefix(dashboardPrefix(user))
}

func dashboardPrefix(user core.UserID) string {
	return fmt.Sprintf("dashboard:%d:", user)
}

// The date is part of the key so a cached month never outlives its day.
func dashboardKey(user core.UserID, now time.Time) string {
	return dashboardPrefix(user) + core.DateOf(now).String()
}
