// source: transactions.sql

package storage

import (
	"context"
	"database/sql"
)

const transactionColumns = `id, user_id, account_id, category_id, transaction_type, amount_cents, transaction_date, description, created_at, updated_at`

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (user_id, account_id, category_id, transaction_type, amount_cents, transaction_date, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	UserID          int64         `json:"user_id"`
	AccountID       int64         `json:"account_id"`
	CategoryID      sql.NullInt64 `json:"category_id"`
	TransactionType string        `json:"transaction_type"`
	AmountCents     int64         `json:"amount_cents"`
	TransactionDate string        `json:"transaction_date"`
	Description     string        `json:"description"`
	CreatedAt       string        `json:"created_at"`
	UpdatedAt       string        `json:"updated_at"`
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.UserID,
		arg.AccountID,
		arg.CategoryID,
		arg.TransactionType,
		arg.AmountCents,
		arg.TransactionDate,
		arg.Description,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanTransaction(row)
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = ? AND user_id = ?
`

type GetTransactionParams struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
}

func (q *Queries) GetTransaction(ctx context.Context, arg GetTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, arg.ID, arg.UserID)
	return scanTransaction(row)
}

const updateTransaction = `-- name: UpdateTransaction :one
UPDATE transactions
SET account_id = ?,
    category_id = ?,
    transaction_type = ?,
    amount_cents = ?,
    transaction_date = ?,
    description = ?,
    updated_at = ?
WHERE id = ? AND user_id = ?
RETURNING ` + transactionColumns

type UpdateTransactionParams struct {
	AccountID       int64         `json:"account_id"`
	CategoryID      sql.NullInt64 `json:"category_id"`
	TransactionType string        `json:"transaction_type"`
	AmountCents     int64         `json:"amount_cents"`
	TransactionDate string        `json:"transaction_date"`
	Description     string        `json:"description"`
	UpdatedAt       string        `json:"updated_at"`
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, updateTransaction,
		arg.AccountID,
		arg.CategoryID,
		arg.TransactionType,
		arg.AmountCents,
		arg.TransactionDate,
		arg.Description,
		arg.UpdatedAt,
		arg.ID,
		arg.UserID,
	)
	return scanTransaction(row)
}

const deleteTransaction = `-- name: DeleteTransaction :execrows
DELETE FROM transactions
WHERE id = ? AND user_id = ?
`

type DeleteTransactionParams struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
}

func (q *Queries) DeleteTransaction(ctx context.Context, arg DeleteTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listTransactions = `-- name: ListTransactions :many
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = ?
  AND (? = 0 OR account_id = ?)
  AND (? = '' OR transaction_date >= ?)
  AND (? = '' OR transaction_date <= ?)
ORDER BY transaction_date DESC, created_at DESC, id DESC
`

type ListTransactionsParams struct {
	UserID    int64  `json:"user_id"`
	AccountID int64  `json:"account_id"`
	FromDate  string `json:"from_date"`
	ToDate    string `json:"to_date"`
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	return q.queryTransactions(ctx, listTransactions,
		arg.UserID,
		arg.AccountID, arg.AccountID,
		arg.FromDate, arg.FromDate,
		arg.ToDate, arg.ToDate,
	)
}

const recentTransactions = `-- name: RecentTransactions :many
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = ?
ORDER BY transaction_date DESC, created_at DESC, id DESC
LIMIT ?
`

type RecentTransactionsParams struct {
	UserID int64 `json:"user_id"`
	Limit  int64 `json:"limit"`
}

func (q *Queries) RecentTransactions(ctx context.Context, arg RecentTransactionsParams) ([]Transaction, error) {
	return q.queryTransactions(ctx, recentTransactions, arg.UserID, arg.Limit)
}

func (q *Queries) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
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

func scanTransaction(row rowScanner) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.AccountID,
		&i.CategoryID,
		&i.TransactionType,
		&i.AmountCents,
		&i.TransactionDate,
		&i.Description,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
