// Package core holds the ledger entities and the pure balance arithmetic.
//
// This file contains the Money type. Amounts are exact decimals with two
// fraction digits and are persisted as integer cents.
package core

import (
	"encoding/json"
	"errors"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "BRL"

var (
	ErrInvalidAmount = errors.New("invalid amount")

	// maxMoney bounds amounts to 10 integer digits (12 digits, 2 of them fractional).
	maxMoney = decimal.New(1, 10)
)

// Money represents an exact monetary value with two fraction digits.
type Money struct {
	value decimal.Decimal
}

// ZeroMoney returns a zero amount.
func ZeroMoney() Money { return Money{value: decimal.Zero} }

// MoneyFromCents converts integer cents (the storage representation) to Money.
func MoneyFromCents(cents int64) Money {
	return Money{value: decimal.New(cents, -2)}
}

// MoneyFromDecimal wraps d, rounding half away from zero to two places.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{value: d.Round(2)}
}

// ParseMoney parses a decimal string such as "12.34" or "12,34".
//
// Signs are allowed here; positivity is a validation concern of the caller.
// More than two fraction digits is an error rather than a silent rounding.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if !d.Equal(d.Round(2)) {
		return Money{}, ErrInvalidAmount
	}
	if d.Abs().GreaterThanOrEqual(maxMoney) {
		return Money{}, ErrInvalidAmount
	}
	return Money{value: d}, nil
}

// MustParseMoney is ParseMoney for constants in tests and seeds.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic("core: invalid money literal " + s)
	}
	return m
}

func (m Money) Cents() int64                    { return m.value.Shift(2).Round(0).IntPart() }
func (m Money) Decimal() decimal.Decimal        { return m.value }
func (m Money) Add(n Money) Money               { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money               { return Money{value: m.value.Sub(n.value)} }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg()} }
func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }

// String returns the amount with exactly two fraction digits, e.g. "950.00".
func (m Money) String() string { return m.value.StringFixed(2) }

// Format renders the amount for humans in the given ISO currency, e.g. "R$950,00".
func (m Money) Format(currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return gomoney.New(m.Cents(), currency).Display()
}

// ValidCurrency reports whether code is a known ISO 4217 currency.
func ValidCurrency(code string) bool {
	return gomoney.GetCurrency(code) != nil
}

// ValidateAmount checks a transaction amount: strictly positive and within bounds.
func (m Money) ValidateAmount() error {
	if !m.value.IsPositive() {
		return ErrInvalidAmount
	}
	if !m.value.Equal(m.value.Round(2)) || m.value.GreaterThanOrEqual(maxMoney) {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON encodes money as a string to keep it exact on the wire.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both "12.34" and 12.34.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*m = ZeroMoney()
		return nil
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
