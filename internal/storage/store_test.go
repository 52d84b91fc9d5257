package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"saldo/internal/core"
)

var testNow = time.Date(2025, 3, 17, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "saldo.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustUser(t *testing.T, s *Store, email string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), core.NewUser{Email: email}, testNow)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func mustAccount(t *testing.T, s *Store, owner core.UserID, name, opening string) core.Account {
	t.Helper()
	in := core.AccountInput{Name: name, Type: core.Checking, OpeningBalance: core.MustParseMoney(opening)}.Normalize()
	a, err := s.CreateAccount(context.Background(), owner, in, testNow)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s := newTestRepo(t).Store()
	mustUser(t, s, "ana@example.com")

	_, err := s.CreateUser(context.Background(), core.NewUser{Email: "ana@example.com"}, testNow)
	var ve *core.ValidationError
	if !errors.As(err, &ve) || ve.Fields["email"] == "" {
		t.Fatalf("expected email validation error, got %v", err)
	}
}

func TestAccountStartsAtOpeningBalance(t *testing.T) {
	s := newTestRepo(t).Store()
	u := mustUser(t, s, "ana@example.com")
	a := mustAccount(t, s, u.ID, "Checking", "1000.00")

	if a.Balance.String() != "1000.00" || a.OpeningBalance.String() != "1000.00" {
		t.Fatalf("unexpected balances %s / %s", a.Balance, a.OpeningBalance)
	}
	if !a.Active || a.Color != core.DefaultColor {
		t.Fatalf("unexpected defaults %+v", a)
	}
	if !a.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected created_at %v", a.CreatedAt)
	}
}

func TestScopedLookupsHideOtherUsersRows(t *testing.T) {
	ctx := context.Background()
	s := newTestRepo(t).Store()
	owner := mustUser(t, s, "owner@example.com")
	other := mustUser(t, s, "other@example.com")
	a := mustAccount(t, s, owner.ID, "Checking", "10.00")

	_, errOther := s.GetAccount(ctx, other.ID, a.ID)
	_, errMissing := s.GetAccount(ctx, other.ID, a.ID+100)
	if !errors.Is(errOther, core.ErrNotFound) || !errors.Is(errMissing, core.ErrNotFound) {
		t.Fatalf("expected not found for both, got %v / %v", errOther, errMissing)
	}
	if errOther.Error() != errMissing.Error() {
		t.Fatalf("foreign and missing rows must look the same: %q vs %q", errOther, errMissing)
	}

	if err := s.DeleteAccount(ctx, other.ID, a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on foreign delete, got %v", err)
	}
	if _, err := s.ApplyToBalance(ctx, other.ID, a.ID, core.Income, core.MustParseMoney("1.00"), testNow); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on foreign balance update, got %v", err)
	}

	got, err := s.GetAccount(ctx, owner.ID, a.ID)
	if err != nil || got.Balance.String() != "10.00" {
		t.Fatalf("owner account changed: %v %v", got.Balance, err)
	}
}

func TestApplyAndRevertBalance(t *testing.T) {
	ctx := context.Background()
	s := newTestRepo(t).Store()
	u := mustUser(t, s, "ana@example.com")
	a := mustAccount(t, s, u.ID, "Checking", "1000.00")

	b, err := s.ApplyToBalance(ctx, u.ID, a.ID, core.Expense, core.MustParseMoney("50.00"), testNow)
	if err != nil || b.String() != "950.00" {
		t.Fatalf("apply: %s %v", b, err)
	}
	b, err = s.RevertFromBalance(ctx, u.ID, a.ID, core.Expense, core.MustParseMoney("50.00"), testNow)
	if err != nil || b.String() != "1000.00" {
		t.Fatalf("revert: %s %v", b, err)
	}
}

func TestUpdateAccountShiftsBalanceByOpeningDifference(t *testing.T) {
	ctx := context.Background()
	s := newTestRepo(t).Store()
	u := mustUser(t, s, "ana@example.com")
	a := mustAccount(t, s, u.ID, "Checking", "100.00")
	if _, err := s.ApplyToBalance(ctx, u.ID, a.ID, core.Expense, core.MustParseMoney("30.00"), testNow); err != nil {
		t.Fatal(err)
	}

	in := core.AccountInput{Name: "Main", Type: core.Savings, OpeningBalance: core.MustParseMoney("150.00")}.Normalize()
	got, err := s.UpdateAccount(ctx, u.ID, a.ID, in, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance.String() != "120.00" || got.OpeningBalance.String() != "150.00" || got.Name != "Main" {
		t.Fatalf("unexpected account after update %+v", got)
	}
}

func TestDeleteCategoryClearsTransactionReference(t *testing.T) {
	ctx := context.Background()
	s := newTestRepo(t).Store()
	u := mustUser(t, s, "ana@example.com")
	a := mustAccount(t, s, u.ID, "Checking", "0")
	cat, err := s.CreateCategory(ctx, u.ID, core.CategoryInput{Name: "Food", Type: core.Expense}.Normalize(), testNow)
	if err != nil {
		t.Fatal(err)
	}
	tx, err := s.CreateTransaction(ctx, u.ID, core.TransactionInput{
		Type: core.Expense, AccountID: a.ID, CategoryID: &cat.ID,
		Amount: core.MustParseMoney("12.00"), Date: core.NewDate(2025, 3, 1),
	}, testNow)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteCategory(ctx, u.ID, cat.ID); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetTransaction(ctx, u.ID, tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CategoryID != nil {
		t.Fatalf("expected category cleared, got %v", *got.CategoryID)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestRepo(t).Store()
	u := mustUser(t, s, "ana@example.com")
	a := mustAccount(t, s, u.ID, "Checking", "0")
	tx, err := s.CreateTransaction(ctx, u.ID, core.TransactionInput{
		Type: core.Income, AccountID: a.ID, Amount: core.MustParseMoney("1.00"), Date: core.NewDate(2025, 3, 1),
	}, testNow)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetAccount(ctx, u.ID, a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected account gone, got %v", err)
	}
	if _, err := s.GetTransaction(ctx, u.ID, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected transaction gone, got %v", err)
	}
}

func TestAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := mustUser(t, repo.Store(), "ana@example.com")
	a := mustAccount(t, repo.Store(), u.ID, "Checking", "1000.00")

	boom := errors.New("boom")
	err := repo.Atomic(ctx, func(s *Store) error {
		if _, err := s.CreateTransaction(ctx, u.ID, core.TransactionInput{
			Type: core.Expense, AccountID: a.ID, Amount: core.MustParseMoney("50.00"), Date: core.NewDate(2025, 3, 1),
		}, testNow); err != nil {
			return err
		}
		if _, err := s.ApplyToBalance(ctx, u.ID, a.ID, core.Expense, core.MustParseMoney("50.00"), testNow); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := repo.Store().GetAccount(ctx, u.ID, a.ID)
	if err != nil || got.Balance.String() != "1000.00" {
		t.Fatalf("balance leaked from rolled back unit: %s %v", got.Balance, err)
	}
	txs, err := repo.Store().ListTransactions(ctx, u.ID, TransactionFilter{})
	if err != nil || len(txs) != 0 {
		t.Fatalf("transaction leaked from rolled back unit: %d %v", len(txs), err)
	}
}

func TestListTransactionsOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestRepo(t).Store()
	u := mustUser(t, s, "ana@example.com")
	a := mustAccount(t, s, u.ID, "A", "0")
	b := mustAccount(t, s, u.ID, "B", "0")

	add := func(acc core.AccountID, date core.Date, at time.Time) core.Transaction {
		tx, err := s.CreateTransaction(ctx, u.ID, core.TransactionInput{
			Type: core.Expense, AccountID: acc, Amount: core.MustParseMoney("1.00"), Date: date,
		}, at)
		if err != nil {
			t.Fatal(err)
		}
		return tx
	}
	first := add(a.ID, core.NewDate(2025, 2, 10), testNow)
	second := add(a.ID, core.NewDate(2025, 3, 5), testNow)
	third := add(b.ID, core.NewDate(2025, 3, 5), testNow.Add(time.Second))

	all, err := s.ListTransactions(ctx, u.ID, TransactionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	want := []core.TransactionID{third.ID, second.ID, first.ID}
	if len(all) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(all))
	}
	for i := range want {
		if all[i].ID != want[i] {
			t.Fatalf("row %d: expected %d, got %d", i, want[i], all[i].ID)
		}
	}

	from, to := core.MonthBounds(2025, 3)
	march, err := s.ListTransactions(ctx, u.ID, TransactionFilter{AccountID: a.ID, From: from, To: to})
	if err != nil {
		t.Fatal(err)
	}
	if len(march) != 1 || march[0].ID != second.ID {
		t.Fatalf("unexpected filtered rows %+v", march)
	}

	recent, err := s.RecentTransactions(ctx, u.ID, 2)
	if err != nil || len(recent) != 2 || recent[0].ID != third.ID {
		t.Fatalf("unexpected recent rows %+v %v", recent, err)
	}
}

func TestAggregatesOnEmptyLedgerAreZero(t *testing.T) {
	ctx := context.Background()
	s := newTestRepo(t).Store()
	u := mustUser(t, s, "ana@example.com")
	from, to := core.MonthRange(testNow)

	total, err := s.TotalActiveBalance(ctx, u.ID)
	if err != nil || !total.IsZero() {
		t.Fatalf("total: %s %v", total, err)
	}
	income, err := s.SumByType(ctx, u.ID, core.Income, from, to)
	if err != nil || !income.IsZero() {
		t.Fatalf("income: %s %v", income, err)
	}
	cats, err := s.ExpensesByCategory(ctx, u.ID, from, to)
	if err != nil || len(cats) != 0 {
		t.Fatalf("categories: %v %v", cats, err)
	}
}

func TestLedgerSumAndSetBalance(t *testing.T) {
	ctx := context.Background()
	s := newTestRepo(t).Store()
	u := mustUser(t, s, "ana@example.com")
	a := mustAccount(t, s, u.ID, "Checking", "0")
	for _, in := range []core.TransactionInput{
		{Type: core.Income, AccountID: a.ID, Amount: core.MustParseMoney("100.00"), Date: core.NewDate(2025, 3, 1)},
		{Type: core.Expense, AccountID: a.ID, Amount: core.MustParseMoney("40.50"), Date: core.NewDate(2025, 3, 2)},
	} {
		if _, err := s.CreateTransaction(ctx, u.ID, in, testNow); err != nil {
			t.Fatal(err)
		}
	}

	sum, err := s.LedgerSum(ctx, u.ID, a.ID)
	if err != nil || sum.String() != "59.50" {
		t.Fatalf("ledger sum: %s %v", sum, err)
	}
	if err := s.SetBalance(ctx, u.ID, a.ID, sum, testNow); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetAccount(ctx, u.ID, a.ID)
	if got.Balance.String() != "59.50" {
		t.Fatalf("unexpected balance %s", got.Balance)
	}
}
