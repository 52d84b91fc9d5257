// source: accounts.sql

package storage

import (
	"context"
)

const accountColumns = `id, user_id, name, account_type, opening_balance_cents, balance_cents, color, is_active, created_at, updated_at`

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (user_id, name, account_type, opening_balance_cents, balance_cents, color, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + accountColumns

type CreateAccountParams struct {
	UserID              int64  `json:"user_id"`
	Name                string `json:"name"`
	AccountType         string `json:"account_type"`
	OpeningBalanceCents int64  `json:"opening_balance_cents"`
	BalanceCents        int64  `json:"balance_cents"`
	Color               string `json:"color"`
	IsActive            int64  `json:"is_active"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, createAccount,
		arg.UserID,
		arg.Name,
		arg.AccountType,
		arg.OpeningBalanceCents,
		arg.BalanceCents,
		arg.Color,
		arg.IsActive,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanAccount(row)
}

const getAccount = `-- name: GetAccount :one
SELECT ` + accountColumns + `
FROM accounts
WHERE id = ? AND user_id = ?
`

type GetAccountParams struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
}

func (q *Queries) GetAccount(ctx context.Context, arg GetAccountParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccount, arg.ID, arg.UserID)
	return scanAccount(row)
}

const listAccounts = `-- name: ListAccounts :many
SELECT ` + accountColumns + `
FROM accounts
WHERE user_id = ?
ORDER BY name, id
`

func (q *Queries) ListAccounts(ctx context.Context, userID int64) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		i, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// The balance shift uses the pre-update opening balance: SQLite evaluates
// every SET expression against the old row.
const updateAccount = `-- name: UpdateAccount :one
UPDATE accounts
SET name = ?,
    account_type = ?,
    color = ?,
    is_active = ?,
    balance_cents = balance_cents + (? - opening_balance_cents),
    opening_balance_cents = ?,
    updated_at = ?
WHERE id = ? AND user_id = ?
RETURNING ` + accountColumns

type UpdateAccountParams struct {
	Name                string `json:"name"`
	AccountType         string `json:"account_type"`
	Color               string `json:"color"`
	IsActive            int64  `json:"is_active"`
	OpeningBalanceCents int64  `json:"opening_balance_cents"`
	UpdatedAt           string `json:"updated_at"`
	ID                  int64  `json:"id"`
	UserID              int64  `json:"user_id"`
}

func (q *Queries) UpdateAccount(ctx context.Context, arg UpdateAccountParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, updateAccount,
		arg.Name,
		arg.AccountType,
		arg.Color,
		arg.IsActive,
		arg.OpeningBalanceCents,
		arg.OpeningBalanceCents,
		arg.UpdatedAt,
		arg.ID,
		arg.UserID,
	)
	return scanAccount(row)
}

const deleteAccount = `-- name: DeleteAccount :execrows
DELETE FROM accounts
WHERE id = ? AND user_id = ?
`

type DeleteAccountParams struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
}

func (q *Queries) DeleteAccount(ctx context.Context, arg DeleteAccountParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAccount, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const adjustAccountBalance = `-- name: AdjustAccountBalance :one
UPDATE accounts
SET balance_cents = balance_cents + ?,
    updated_at = ?
WHERE id = ? AND user_id = ?
RETURNING balance_cents
`

type AdjustAccountBalanceParams struct {
	DeltaCents int64  `json:"delta_cents"`
	UpdatedAt  string `json:"updated_at"`
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
}

func (q *Queries) AdjustAccountBalance(ctx context.Context, arg AdjustAccountBalanceParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, adjustAccountBalance,
		arg.DeltaCents,
		arg.UpdatedAt,
		arg.ID,
		arg.UserID,
	)
	var balanceCents int64
	err := row.Scan(&balanceCents)
	return balanceCents, err
}

const setAccountBalance = `-- name: SetAccountBalance :execrows
UPDATE accounts
SET balance_cents = ?,
    updated_at = ?
WHERE id = ? AND user_id = ?
`

type SetAccountBalanceParams struct {
	BalanceCents int64  `json:"balance_cents"`
	UpdatedAt    string `json:"updated_at"`
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
}

func (q *Queries) SetAccountBalance(ctx context.Context, arg SetAccountBalanceParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setAccountBalance,
		arg.BalanceCents,
		arg.UpdatedAt,
		arg.ID,
		arg.UserID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const sumAccountLedger = `-- name: SumAccountLedger :one
SELECT CAST(COALESCE(SUM(CASE WHEN transaction_type = 'income' THEN amount_cents ELSE -amount_cents END), 0) AS INTEGER)
FROM transactions
WHERE account_id = ? AND user_id = ?
`

type SumAccountLedgerParams struct {
	AccountID int64 `json:"account_id"`
	UserID    int64 `json:"user_id"`
}

func (q *Queries) SumAccountLedger(ctx context.Context, arg SumAccountLedgerParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumAccountLedger, arg.AccountID, arg.UserID)
	var total int64
	err := row.Scan(&total)
	return total, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (Account, error) {
	var i Account
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.AccountType,
		&i.OpeningBalanceCents,
		&i.BalanceCents,
		&i.Color,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
