// source: categories.sql

package storage

import (
	"context"
)

const categoryColumns = `id, user_id, name, category_type, icon, color, created_at, updated_at`

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (user_id, name, category_type, icon, color, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + categoryColumns

type CreateCategoryParams struct {
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	CategoryType string `json:"category_type"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, createCategory,
		arg.UserID,
		arg.Name,
		arg.CategoryType,
		arg.Icon,
		arg.Color,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanCategory(row)
}

const getCategory = `-- name: GetCategory :one
SELECT ` + categoryColumns + `
FROM categories
WHERE id = ? AND user_id = ?
`

type GetCategoryParams struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
}

func (q *Queries) GetCategory(ctx context.Context, arg GetCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategory, arg.ID, arg.UserID)
	return scanCategory(row)
}

const listCategories = `-- name: ListCategories :many
SELECT ` + categoryColumns + `
FROM categories
WHERE user_id = ?
ORDER BY category_type, name, id
`

func (q *Queries) ListCategories(ctx context.Context, userID int64) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		i, err := scanCategory(rows)
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

const updateCategory = `-- name: UpdateCategory :one
UPDATE categories
SET name = ?,
    category_type = ?,
    icon = ?,
    color = ?,
    updated_at = ?
WHERE id = ? AND user_id = ?
RETURNING ` + categoryColumns

type UpdateCategoryParams struct {
	Name         string `json:"name"`
	CategoryType string `json:"category_type"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
	UpdatedAt    string `json:"updated_at"`
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, updateCategory,
		arg.Name,
		arg.CategoryType,
		arg.Icon,
		arg.Color,
		arg.UpdatedAt,
		arg.ID,
		arg.UserID,
	)
	return scanCategory(row)
}

const deleteCategory = `-- name: DeleteCategory :execrows
DELETE FROM categories
WHERE id = ? AND user_id = ?
`

type DeleteCategoryParams struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
}

func (q *Queries) DeleteCategory(ctx context.Context, arg DeleteCategoryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCategory, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanCategory(row rowScanner) (Category, error) {
	var i Category
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.CategoryType,
		&i.Icon,
		&i.Color,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
