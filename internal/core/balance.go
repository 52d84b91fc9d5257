package core

import "time"

// SignedEffect is the contribution of a transaction to its account balance:
// +amount for income, -amount for expense.
func SignedEffect(t EntryType, amount Money) Money {
	if t == Expense {
		return amount.Neg()
	}
	return amount
}

// Apply adds the effect of a transaction to balance.
func Apply(balance Money, t EntryType, amount Money) Money {
	return balance.Add(SignedEffect(t, amount))
}

// Revert removes the effect of a transaction from balance.
// Revert(Apply(b, t, a), t, a) == b for every b, t, a.
func Revert(balance Money, t EntryType, amount Money) Money {
	return balance.Sub(SignedEffect(t, amount))
}

// ExpectedBalance recomputes an account balance from scratch.
func ExpectedBalance(opening Money, txs []Transaction) Money {
	b := opening
	for _, tx := range txs {
		b = Apply(b, tx.Type, tx.Amount)
	}
	return b
}

type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
)

// AccountBalance is the committed balance of one account after a mutation.
type AccountBalance struct {
	AccountID AccountID `json:"account_id"`
	Balance   Money     `json:"balance"`
}

// TransactionChange is what every transaction command returns after commit.
type TransactionChange struct {
	Kind        ChangeKind       `json:"kind"`
	Transaction Transaction      `json:"transaction"`
	Touched     []string         `json:"touched,omitempty"`
	Balances    []AccountBalance `json:"balances"`
	At          time.Time        `json:"at"`
}

// AccountIDs returns the accounts whose balance the change touched.
func (c TransactionChange) AccountIDs() []AccountID {
	ids := make([]AccountID, 0, len(c.Balances))
	for _, b := range c.Balances {
		ids = append(ids, b.AccountID)
	}
	return ids
}

// BalanceOf returns the post-commit balance of id, if the change touched it.
func (c TransactionChange) BalanceOf(id AccountID) (Money, bool) {
	for _, b := range c.Balances {
		if b.AccountID == id {
			return b.Balance, true
		}
	}
	return Money{}, false
}

// TouchedFields lists the fields that differ between old and the updated input.
func TouchedFields(old Transaction, in TransactionInput) []string {
	var fields []string
	if old.Type != in.Type {
		fields = append(fields, "type")
	}
	if old.AccountID != in.AccountID {
		fields = append(fields, "account_id")
	}
	if !sameCategory(old.CategoryID, in.CategoryID) {
		fields = append(fields, "category_id")
	}
	if !old.Amount.Equal(in.Amount) {
		fields = append(fields, "amount")
	}
	if !old.Date.Equal(in.Date.Time) {
		fields = append(fields, "date")
	}
	if old.Description != in.Description {
		fields = append(fields, "description")
	}
	return fields
}

func sameCategory(a, b *CategoryID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
