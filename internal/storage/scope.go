package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"saldo/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed width so that TEXT ordering matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store exposes the ledger operations. Every account, category and transaction
// operation is filtered by owner: a row owned by someone else is reported as
// core.ErrNotFound, exactly like a missing row.
type Store struct {
	q *Queries
}

// TransactionFilter narrows ListTransactions. Zero values mean no filter.
type TransactionFilter struct {
	AccountID core.AccountID
	From      core.Date
	To        core.Date
}

func NewStore(q *Queries) *Store {
	return &Store{q: q}
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, in core.NewUser, now time.Time) (core.User, error) {
	ts := formatTime(now)
	row, err := s.q.CreateUser(ctx, CreateUserParams{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, &core.ValidationError{Fields: map[string]string{"email": "already registered"}}
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return toUser(row), nil
}

func (s *Store) GetUser(ctx context.Context, id core.UserID) (core.User, error) {
	row, err := s.q.GetUser(ctx, int64(id))
	if err != nil {
		return core.User{}, notFound("get user", err)
	}
	return toUser(row), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := s.q.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, notFound("get user by email", err)
	}
	return toUser(row), nil
}

// DeleteUser removes the user; accounts, categories and transactions cascade.
func (s *Store) DeleteUser(ctx context.Context, id core.UserID) error {
	n, err := s.q.DeleteUser(ctx, int64(id))
	return affected("delete user", n, err)
}

func (s *Store) ListUserIDs(ctx context.Context) ([]core.UserID, error) {
	ids, err := s.q.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]core.UserID, len(ids))
	for i, id := range ids {
		out[i] = core.UserID(id)
	}
	return out, nil
}

// --- accounts ---

// CreateAccount stores a new account whose balance starts at the opening balance.
func (s *Store) CreateAccount(ctx context.Context, owner core.UserID, in core.AccountInput, now time.Time) (core.Account, error) {
	ts := formatTime(now)
	row, err := s.q.CreateAccount(ctx, CreateAccountParams{
		UserID:              int64(owner),
		Name:                in.Name,
		AccountType:         string(in.Type),
		OpeningBalanceCents: in.OpeningBalance.Cents(),
		BalanceCents:        in.OpeningBalance.Cents(),
		Color:               in.Color,
		IsActive:            boolToInt(in.Active == nil || *in.Active),
		CreatedAt:           ts,
		UpdatedAt:           ts,
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return toAccount(row), nil
}

func (s *Store) GetAccount(ctx context.Context, owner core.UserID, id core.AccountID) (core.Account, error) {
	row, err := s.q.GetAccount(ctx, GetAccountParams{ID: int64(id), UserID: int64(owner)})
	if err != nil {
		return core.Account{}, notFound("get account", err)
	}
	return toAccount(row), nil
}

func (s *Store) ListAccounts(ctx context.Context, owner core.UserID) ([]core.Account, error) {
	rows, err := s.q.ListAccounts(ctx, int64(owner))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.Account, len(rows))
	for i, r := range rows {
		out[i] = toAccount(r)
	}
	return out, nil
}

// UpdateAccount rewrites the editable fields. A changed opening balance shifts
// the cached balance by the same difference.
func (s *Store) UpdateAccount(ctx context.Context, owner core.UserID, id core.AccountID, in core.AccountInput, now time.Time) (core.Account, error) {
	row, err := s.q.UpdateAccount(ctx, UpdateAccountParams{
		Name:                in.Name,
		AccountType:         string(in.Type),
		Color:               in.Color,
		IsActive:            boolToInt(in.Active == nil || *in.Active),
		OpeningBalanceCents: in.OpeningBalance.Cents(),
		UpdatedAt:           formatTime(now),
		ID:                  int64(id),
		UserID:              int64(owner),
	})
	if err != nil {
		return core.Account{}, notFound("update account", err)
	}
	return toAccount(row), nil
}

// DeleteAccount removes the account and, by cascade, its transactions.
func (s *Store) DeleteAccount(ctx context.Context, owner core.UserID, id core.AccountID) error {
	n, err := s.q.DeleteAccount(ctx, DeleteAccountParams{ID: int64(id), UserID: int64(owner)})
	return affected("delete account", n, err)
}

// ApplyToBalance adds the signed effect of a transaction to the account's
// balance and returns the new balance. Only balance and updated_at are written.
func (s *Store) ApplyToBalance(ctx context.Context, owner core.UserID, id core.AccountID, t core.EntryType, amount core.Money, now time.Time) (core.Money, error) {
	return s.adjustBalance(ctx, owner, id, core.SignedEffect(t, amount), now)
}

// RevertFromBalance removes the signed effect of a transaction from the balance.
func (s *Store) RevertFromBalance(ctx context.Context, owner core.UserID, id core.AccountID, t core.EntryType, amount core.Money, now time.Time) (core.Money, error) {
	return s.adjustBalance(ctx, owner, id, core.SignedEffect(t, amount).Neg(), now)
}

func (s *Store) adjustBalance(ctx context.Context, owner core.UserID, id core.AccountID, delta core.Money, now time.Time) (core.Money, error) {
	cents, err := s.q.AdjustAccountBalance(ctx, AdjustAccountBalanceParams{
		DeltaCents: delta.Cents(),
		UpdatedAt:  formatTime(now),
		ID:         int64(id),
		UserID:     int64(owner),
	})
	if err != nil {
		return core.Money{}, notFound("adjust balance", err)
	}
	return core.MoneyFromCents(cents), nil
}

// SetBalance overwrites the cached balance. Only reconciliation repair uses it.
func (s *Store) SetBalance(ctx context.Context, owner core.UserID, id core.AccountID, balance core.Money, now time.Time) error {
	n, err := s.q.SetAccountBalance(ctx, SetAccountBalanceParams{
		BalanceCents: balance.Cents(),
		UpdatedAt:    formatTime(now),
		ID:           int64(id),
		UserID:       int64(owner),
	})
	return affected("set balance", n, err)
}

// LedgerSum is the signed sum of every transaction of the account.
func (s *Store) LedgerSum(ctx context.Context, owner core.UserID, id core.AccountID) (core.Money, error) {
	cents, err := s.q.SumAccountLedger(ctx, SumAccountLedgerParams{AccountID: int64(id), UserID: int64(owner)})
	if err != nil {
		return core.Money{}, fmt.Errorf("sum account ledger: %w", err)
	}
	return core.MoneyFromCents(cents), nil
}

// --- categories ---

func (s *Store) CreateCategory(ctx context.Context, owner core.UserID, in core.CategoryInput, now time.Time) (core.Category, error) {
	ts := formatTime(now)
	row, err := s.q.CreateCategory(ctx, CreateCategoryParams{
		UserID:       int64(owner),
		Name:         in.Name,
		CategoryType: string(in.Type),
		Icon:         in.Icon,
		Color:        in.Color,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return toCategory(row), nil
}

func (s *Store) GetCategory(ctx context.Context, owner core.UserID, id core.CategoryID) (core.Category, error) {
	row, err := s.q.GetCategory(ctx, GetCategoryParams{ID: int64(id), UserID: int64(owner)})
	if err != nil {
		return core.Category{}, notFound("get category", err)
	}
	return toCategory(row), nil
}

func (s *Store) ListCategories(ctx context.Context, owner core.UserID) ([]core.Category, error) {
	rows, err := s.q.ListCategories(ctx, int64(owner))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, r := range rows {
		out[i] = toCategory(r)
	}
	return out, nil
}

func (s *Store) UpdateCategory(ctx context.Context, owner core.UserID, id core.CategoryID, in core.CategoryInput, now time.Time) (core.Category, error) {
	row, err := s.q.UpdateCategory(ctx, UpdateCategoryParams{
		Name:         in.Name,
		CategoryType: string(in.Type),
		Icon:         in.Icon,
		Color:        in.Color,
		UpdatedAt:    formatTime(now),
		ID:           int64(id),
		UserID:       int64(owner),
	})
	if err != nil {
		return core.Category{}, notFound("update category", err)
	}
	return toCategory(row), nil
}

// DeleteCategory removes the category; its transactions keep existing uncategorized.
func (s *Store) DeleteCategory(ctx context.Context, owner core.UserID, id core.CategoryID) error {
	n, err := s.q.DeleteCategory(ctx, DeleteCategoryParams{ID: int64(id), UserID: int64(owner)})
	return affected("delete category", n, err)
}

// --- transactions ---

// CreateTransaction inserts the row only. Balance effects are the caller's job.
func (s *Store) CreateTransaction(ctx context.Context, owner core.UserID, in core.TransactionInput, now time.Time) (core.Transaction, error) {
	ts := formatTime(now)
	row, err := s.q.CreateTransaction(ctx, CreateTransactionParams{
		UserID:          int64(owner),
		AccountID:       int64(in.AccountID),
		CategoryID:      nullCategory(in.CategoryID),
		TransactionType: string(in.Type),
		AmountCents:     in.Amount.Cents(),
		TransactionDate: in.Date.String(),
		Description:     in.Description,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return toTransaction(row)
}

func (s *Store) GetTransaction(ctx context.Context, owner core.UserID, id core.TransactionID) (core.Transaction, error) {
	row, err := s.q.GetTransaction(ctx, GetTransactionParams{ID: int64(id), UserID: int64(owner)})
	if err != nil {
		return core.Transaction{}, notFound("get transaction", err)
	}
	return toTransaction(row)
}

// UpdateTransaction rewrites every field of the row. Balance effects are the caller's job.
func (s *Store) UpdateTransaction(ctx context.Context, owner core.UserID, id core.TransactionID, in core.TransactionInput, now time.Time) (core.Transaction, error) {
	row, err := s.q.UpdateTransaction(ctx, UpdateTransactionParams{
		AccountID:       int64(in.AccountID),
		CategoryID:      nullCategory(in.CategoryID),
		TransactionType: string(in.Type),
		AmountCents:     in.Amount.Cents(),
		TransactionDate: in.Date.String(),
		Description:     in.Description,
		UpdatedAt:       formatTime(now),
		ID:              int64(id),
		UserID:          int64(owner),
	})
	if err != nil {
		return core.Transaction{}, notFound("update transaction", err)
	}
	return toTransaction(row)
}

func (s *Store) DeleteTransaction(ctx context.Context, owner core.UserID, id core.TransactionID) error {
	n, err := s.q.DeleteTransaction(ctx, DeleteTransactionParams{ID: int64(id), UserID: int64(owner)})
	return affected("delete transaction", n, err)
}

// ListTransactions returns the owner's transactions newest first.
func (s *Store) ListTransactions(ctx context.Context, owner core.UserID, f TransactionFilter) ([]core.Transaction, error) {
	rows, err := s.q.ListTransactions(ctx, ListTransactionsParams{
		UserID:    int64(owner),
		AccountID: int64(f.AccountID),
		FromDate:  f.From.String(),
		ToDate:    f.To.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toTransactions(rows)
}

func (s *Store) RecentTransactions(ctx context.Context, owner core.UserID, limit int) ([]core.Transaction, error) {
	rows, err := s.q.RecentTransactions(ctx, RecentTransactionsParams{UserID: int64(owner), Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return toTransactions(rows)
}

// --- aggregates ---

func (s *Store) TotalActiveBalance(ctx context.Context, owner core.UserID) (core.Money, error) {
	cents, err := s.q.SumActiveBalances(ctx, int64(owner))
	if err != nil {
		return core.Money{}, fmt.Errorf("sum active balances: %w", err)
	}
	return core.MoneyFromCents(cents), nil
}

// SumByType totals the owner's transactions of type t dated within [from, to].
func (s *Store) SumByType(ctx context.Context, owner core.UserID, t core.EntryType, from, to core.Date) (core.Money, error) {
	cents, err := s.q.SumTransactionsByType(ctx, SumTransactionsByTypeParams{
		UserID:          int64(owner),
		TransactionType: string(t),
		FromDate:        from.String(),
		ToDate:          to.String(),
	})
	if err != nil {
		return core.Money{}, fmt.Errorf("sum %s transactions: %w", t, err)
	}
	return core.MoneyFromCents(cents), nil
}

// ExpensesByCategory totals expenses within [from, to] per category, largest first.
func (s *Store) ExpensesByCategory(ctx context.Context, owner core.UserID, from, to core.Date) ([]core.CategoryAmount, error) {
	rows, err := s.q.GetCategorySums(ctx, GetCategorySumsParams{
		UserID:   int64(owner),
		FromDate: from.String(),
		ToDate:   to.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("get category sums: %w", err)
	}
	out := make([]core.CategoryAmount, 0, len(rows))
	for _, r := range rows {
		var id *core.CategoryID
		if r.CategoryID.Valid {
			v := core.CategoryID(r.CategoryID.Int64)
			id = &v
		}
		out = append(out, core.CategoryAmount{
			CategoryID: id,
			Name:       r.CategoryName,
			Amount:     core.MoneyFromCents(r.TotalAmount),
		})
	}
	return out, nil
}

// --- conversions ---

func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func affected(op string, n int64, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func nullCategory(id *core.CategoryID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func toUser(r User) core.User {
	return core.User{
		ID:        core.UserID(r.ID),
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}
}

func toAccount(r Account) core.Account {
	return core.Account{
		ID:             core.AccountID(r.ID),
		UserID:         core.UserID(r.UserID),
		Name:           r.Name,
		Type:           core.AccountType(r.AccountType),
		OpeningBalance: core.MoneyFromCents(r.OpeningBalanceCents),
		Balance:        core.MoneyFromCents(r.BalanceCents),
		Color:          r.Color,
		Active:         r.IsActive != 0,
		CreatedAt:      parseTime(r.CreatedAt),
		UpdatedAt:      parseTime(r.UpdatedAt),
	}
}

func toCategory(r Category) core.Category {
	return core.Category{
		ID:        core.CategoryID(r.ID),
		UserID:    core.UserID(r.UserID),
		Name:      r.Name,
		Type:      core.EntryType(r.CategoryType),
		Icon:      r.Icon,
		Color:     r.Color,
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}
}

func toTransaction(r Transaction) (core.Transaction, error) {
	date, err := core.ParseDate(r.TransactionDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: stored date %q: %w", r.ID, r.TransactionDate, err)
	}
	var cat *core.CategoryID
	if r.CategoryID.Valid {
		v := core.CategoryID(r.CategoryID.Int64)
		cat = &v
	}
	return core.Transaction{
		ID:          core.TransactionID(r.ID),
		UserID:      core.UserID(r.UserID),
		AccountID:   core.AccountID(r.AccountID),
		CategoryID:  cat,
		Type:        core.EntryType(r.TransactionType),
		Amount:      core.MoneyFromCents(r.AmountCents),
		Date:        date,
		Description: r.Description,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}, nil
}

func toTransactions(rows []Transaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		tx, err := toTransaction(r)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}
