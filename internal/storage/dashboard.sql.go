// source: dashboard.sql

package storage

import (
	"context"
	"database/sql"
)

const sumActiveBalances = `-- name: SumActiveBalances :one
SELECT CAST(COALESCE(SUM(balance_cents), 0) AS INTEGER)
FROM accounts
WHERE user_id = ? AND is_active = 1
`

func (q *Queries) SumActiveBalances(ctx context.Context, userID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumActiveBalances, userID)
	var total int64
	err := row.Scan(&total)
	return total, err
}

const sumTransactionsByType = `-- name: SumTransactionsByType :one
SELECT CAST(COALESCE(SUM(amount_cents), 0) AS INTEGER)
FROM transactions
WHERE user_id = ?
  AND transaction_type = ?
  AND transaction_date >= ?
  AND transaction_date <= ?
`

type SumTransactionsByTypeParams struct {
	UserID          int64  `json:"user_id"`
	TransactionType string `json:"transaction_type"`
	FromDate        string `json:"from_date"`
	ToDate          string `json:"to_date"`
}

func (q *Queries) SumTransactionsByType(ctx context.Context, arg SumTransactionsByTypeParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumTransactionsByType,
		arg.UserID,
		arg.TransactionType,
		arg.FromDate,
		arg.ToDate,
	)
	var total int64
	err := row.Scan(&total)
	return total, err
}

const getCategorySums = `-- name: GetCategorySums :many
SELECT t.category_id, COALESCE(c.name, '') AS category_name, CAST(SUM(t.amount_cents) AS INTEGER) AS total_amount
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
WHERE t.user_id = ?
  AND t.transaction_type = 'expense'
  AND t.transaction_date >= ?
  AND t.transaction_date <= ?
GROUP BY t.category_id, c.name
ORDER BY total_amount DESC, category_name
`

type GetCategorySumsParams struct {
	UserID   int64  `json:"user_id"`
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

type GetCategorySumsRow struct {
	CategoryID   sql.NullInt64 `json:"category_id"`
	CategoryName string        `json:"category_name"`
	TotalAmount  int64         `json:"total_amount"`
}

func (q *Queries) GetCategorySums(ctx context.Context, arg GetCategorySumsParams) ([]GetCategorySumsRow, error) {
	rows, err := q.db.QueryContext(ctx, getCategorySums, arg.UserID, arg.FromDate, arg.ToDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetCategorySumsRow
	for rows.Next() {
		var i GetCategorySumsRow
		if err := rows.Scan(&i.CategoryID, &i.CategoryName, &i.TotalAmount); err != nil {
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
