package core

import "time"

// CategoryAmount represents an amount aggregated by category name.
// Uncategorized transactions are reported with an empty Name.
type CategoryAmount struct {
	CategoryID *CategoryID `json:"category_id"`
	Name       string      `json:"name"`
	Amount     Money       `json:"amount"`
}

// Dashboard is the per-user summary: balances, current month figures, recent activity.
type Dashboard struct {
	TotalBalance       Money            `json:"total_balance"`
	MonthlyIncome      Money            `json:"monthly_income"`
	MonthlyExpenses    Money            `json:"monthly_expenses"`
	MonthlyNet         Money            `json:"monthly_net"`
	ExpensesByCategory []CategoryAmount `json:"expenses_by_category"`
	Recent             []Transaction    `json:"recent"`
	From               Date             `json:"from"`
	To                 Date             `json:"to"`
}

// Reconciliation compares a cached balance with the one recomputed from transactions.
type Reconciliation struct {
	AccountID AccountID `json:"account_id"`
	UserID    UserID    `json:"user_id"`
	Cached    Money     `json:"cached"`
	Expected  Money     `json:"expected"`
	Repaired  bool      `json:"repaired"`
}

func (r Reconciliation) Drift() Money { return r.Cached.Sub(r.Expected) }
func (r Reconciliation) InSync() bool { return r.Cached.Equal(r.Expected) }

// MonthRange returns the first day of now's month and now's date, inclusive bounds.
func MonthRange(now time.Time) (Date, Date) {
	today := DateOf(now)
	return NewDate(today.Year(), int(today.Month()), 1), today
}

// MonthBounds returns the first and last day of year/month.
func MonthBounds(year, month int) (Date, Date) {
	first := NewDate(year, month, 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}
