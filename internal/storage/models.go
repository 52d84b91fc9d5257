package storage

import (
	"database/sql"
)

type Account struct {
	ID                  int64  `json:"id"`
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

type Category struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	CategoryType string `json:"category_type"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type Transaction struct {
	ID              int64         `json:"id"`
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

type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
