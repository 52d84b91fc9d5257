package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	if err != nil || d.String() != "2025-02-28" {
		t.Fatalf("unexpected %v %v", d, err)
	}
	if _, err := ParseDate("28/02/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		" Ana@Example.COM ": "Ana@example.com",
		"bob@host.io":       "bob@host.io",
		"no-at-sign":        "no-at-sign",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
}

func TestNewUserValidate(t *testing.T) {
	if err := (NewUser{Email: "ana@example.com"}).Normalize().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	err := (NewUser{Email: "not an email"}).Normalize().Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields["email"] == "" {
		t.Fatalf("expected email field error, got %v", err)
	}
}

func TestAccountInputNormalizeDefaults(t *testing.T) {
	in := AccountInput{Name: "  Checking ", Type: Checking}.Normalize()
	if in.Name != "Checking" || in.Color != DefaultColor || in.Active == nil || !*in.Active {
		t.Fatalf("unexpected defaults %+v", in)
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestAccountInputValidate(t *testing.T) {
	bads := []AccountInput{
		{Name: "", Type: Checking, Color: DefaultColor},
		{Name: strings.Repeat("x", 101), Type: Checking, Color: DefaultColor},
		{Name: "a", Type: "crypto", Color: DefaultColor},
		{Name: "a", Type: Cash, Color: "red"},
		{Name: "a", Type: Cash, Color: DefaultColor, OpeningBalance: MoneyFromCents(-1)},
		{Name: "a", Type: Cash, Color: DefaultColor, OpeningBalance: MoneyFromDecimal(maxMoney)},
	}
	for i, in := range bads {
		if err := in.Validate(); !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestCategoryInputValidate(t *testing.T) {
	good := CategoryInput{Name: "Salário", Type: Income}.Normalize()
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := CategoryInput{Name: "x", Type: "transfer", Color: "#zzzzzz"}
	err := bad.Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Fields["type"] == "" || ve.Fields["color"] == "" {
		t.Fatalf("expected type and color errors, got %v", ve.Fields)
	}
}

func TestTransactionInputValidate(t *testing.T) {
	good := TransactionInput{
		Type:      Expense,
		AccountID: 1,
		Amount:    MustParseMoney("50.00"),
		Date:      NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := map[string]TransactionInput{
		"type":        {Type: "x", AccountID: 1, Amount: MustParseMoney("1"), Date: NewDate(2025, 1, 1)},
		"account_id":  {Type: Income, Amount: MustParseMoney("1"), Date: NewDate(2025, 1, 1)},
		"amount":      {Type: Income, AccountID: 1, Amount: ZeroMoney(), Date: NewDate(2025, 1, 1)},
		"date":        {Type: Income, AccountID: 1, Amount: MustParseMoney("1")},
		"description": {Type: Income, AccountID: 1, Amount: MustParseMoney("1"), Date: NewDate(2025, 1, 1), Description: strings.Repeat("d", 256)},
	}
	for field, in := range cases {
		var ve *ValidationError
		if err := in.Validate(); !errors.As(err, &ve) || ve.Fields[field] == "" {
			t.Fatalf("%s: expected field error, got %v", field, err)
		}
	}
}

func TestTransactionInputNormalizeDropsZeroCategory(t *testing.T) {
	zero := CategoryID(0)
	in := TransactionInput{CategoryID: &zero, Description: "  x "}.Normalize()
	if in.CategoryID != nil || in.Description != "x" {
		t.Fatalf("unexpected normalized input %+v", in)
	}
}

func TestTransientWrapping(t *testing.T) {
	base := errors.New("database is locked")
	err := Transient("create transaction", base)
	if !errors.Is(err, ErrTransient) || !errors.Is(err, base) {
		t.Fatalf("expected transient wrapping base, got %v", err)
	}
	if err := Transient("get", ErrNotFound); errors.Is(err, ErrTransient) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("not found must not become transient: %v", err)
	}
	if Transient("noop", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(time.Date(2025, 3, 17, 22, 0, 0, 0, time.UTC))
	if from.String() != "2025-03-01" || to.String() != "2025-03-17" {
		t.Fatalf("unexpected range %s..%s", from, to)
	}
	first, last := MonthBounds(2024, 2)
	if first.String() != "2024-02-01" || last.String() != "2024-02-29" {
		t.Fatalf("unexpected bounds %s..%s", first, last)
	}
}

func TestLengthLimitsCountCharacters(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"first name of 150 accented letters", NewUser{Email: "ana@example.com", FirstName: strings.Repeat("é", 150)}.Validate()},
		{"last name of 150 accented letters", NewUser{Email: "ana@example.com", LastName: strings.Repeat("ã", 150)}.Validate()},
		{"account name of 100 accented letters", AccountInput{Name: strings.Repeat("ç", 100), Type: Savings, Color: DefaultColor}.Validate()},
		{"icon of 50 emoji", CategoryInput{Name: "Mercado", Type: Expense, Icon: strings.Repeat("🛒", 50), Color: DefaultColor}.Validate()},
		{"description of 255 accented letters", TransactionInput{
			Type: Expense, AccountID: 1, Amount: MustParseMoney("1"), Date: NewDate(2025, 1, 1), Description: strings.Repeat("ç", 255),
		}.Validate()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err != nil {
				t.Fatalf("expected ok, got %v", tt.err)
			}
		})
	}

	tooLong := []struct {
		field string
		err   error
	}{
		{"first_name", NewUser{Email: "ana@example.com", FirstName: strings.Repeat("é", 151)}.Validate()},
		{"icon", CategoryInput{Name: "Mercado", Type: Expense, Icon: strings.Repeat("🛒", 51), Color: DefaultColor}.Validate()},
		{"description", TransactionInput{
			Type: Expense, AccountID: 1, Amount: MustParseMoney("1"), Date: NewDate(2025, 1, 1), Description: strings.Repeat("ç", 256),
		}.Validate()},
	}
	for _, tt := range tooLong {
		var ve *ValidationError
		if !errors.As(tt.err, &ve) || ve.Fields[tt.field] == "" {
			t.Errorf("%s: expected field error, got %v", tt.field, tt.err)
		}
	}
}

func TestOpeningBalanceBoundMatchesAmountBound(t *testing.T) {
	if _, err := ParseMoney("10000000000.00"); err == nil {
		t.Fatal("ParseMoney should reject 10^10")
	}
	justBelow := MoneyFromDecimal(maxMoney).Sub(MoneyFromCents(1))
	in := AccountInput{Name: "Cofre", Type: Savings, Color: DefaultColor, OpeningBalance: justBelow}
	if err := in.Validate(); err != nil {
		t.Fatalf("%s should be accepted, got %v", justBelow, err)
	}
	in.OpeningBalance = MoneyFromDecimal(maxMoney)
	if err := in.Validate(); !IsValidation(err) {
		t.Fatalf("10^10 should be rejected like any amount, got %v", err)
	}
}
