package core

import (
	"encoding/json"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Checking   AccountType = "checking"
	Savings    AccountType = "savings"
	Investment AccountType = "investment"
	Cash       AccountType = "cash"
	Other      AccountType = "other"

	Income  EntryType = "income"
	Expense EntryType = "expense"

	// DefaultColor is the tag given to accounts and categories created without one.
	DefaultColor = "#06b6d4"

	DateLayout = "2006-01-02"
)

type (
	UserID        int64
	AccountID     int64
	CategoryID    int64
	TransactionID int64

	// AccountType classifies an account.
	AccountType string

	// EntryType is income or expense. Categories and transactions share it;
	// for transactions it decides the sign of the balance effect.
	EntryType string

	// Date is a calendar date without time of day, always in UTC.
	Date struct {
		time.Time
	}

	User struct {
		ID        UserID    `json:"id"`
		Email     string    `json:"email"`
		FirstName string    `json:"first_name"`
		LastName  string    `json:"last_name"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	Account struct {
		ID             AccountID   `json:"id"`
		UserID         UserID      `json:"user_id"`
		Name           string      `json:"name"`
		Type           AccountType `json:"type"`
		OpeningBalance Money       `json:"opening_balance"`
		Balance        Money       `json:"balance"`
		Color          string      `json:"color"`
		Active         bool        `json:"active"`
		CreatedAt      time.Time   `json:"created_at"`
		UpdatedAt      time.Time   `json:"updated_at"`
	}

	Category struct {
		ID        CategoryID `json:"id"`
		UserID    UserID     `json:"user_id"`
		Name      string     `json:"name"`
		Type      EntryType  `json:"type"`
		Icon      string     `json:"icon"`
		Color     string     `json:"color"`
		CreatedAt time.Time  `json:"created_at"`
		UpdatedAt time.Time  `json:"updated_at"`
	}

	Transaction struct {
		ID          TransactionID `json:"id"`
		UserID      UserID        `json:"user_id"`
		AccountID   AccountID     `json:"account_id"`
		CategoryID  *CategoryID   `json:"category_id"`
		Type        EntryType     `json:"type"`
		Amount      Money         `json:"amount"`
		Date        Date          `json:"date"`
		Description string        `json:"description"`
		CreatedAt   time.Time     `json:"created_at"`
		UpdatedAt   time.Time     `json:"updated_at"`
	}
)

// Input values. They are plain values; services never mutate them.
type (
	NewUser struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	AccountInput struct {
		Name           string      `json:"name"`
		Type           AccountType `json:"type"`
		OpeningBalance Money       `json:"opening_balance"`
		Color          string      `json:"color"`
		Active         *bool       `json:"active,omitempty"`
	}

	CategoryInput struct {
		Name  string    `json:"name"`
		Type  EntryType `json:"type"`
		Icon  string    `json:"icon"`
		Color string    `json:"color"`
	}

	TransactionInput struct {
		Type        EntryType   `json:"type"`
		AccountID   AccountID   `json:"account_id"`
		CategoryID  *CategoryID `json:"category_id,omitempty"`
		Amount      Money       `json:"amount"`
		Date        Date        `json:"date"`
		Description string      `json:"description"`
	}
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (t AccountType) Valid() bool {
	switch t {
	case Checking, Savings, Investment, Cash, Other:
		return true
	}
	return false
}

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

// AccountTypes lists the account types in display order.
func AccountTypes() []AccountType {
	return []AccountType{Checking, Savings, Investment, Cash, Other}
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NormalizeEmail trims the address and lower-cases its domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func (u NewUser) Normalize() NewUser {
	u.Email = NormalizeEmail(u.Email)
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	return u
}

func (u NewUser) Validate() error {
	v := validation{}
	addr, err := mail.ParseAddress(u.Email)
	if err != nil || addr.Address != u.Email || utf8.RuneCountInString(u.Email) > 255 {
		v.add("email", ErrInvalidEmail)
	}
	if utf8.RuneCountInString(u.FirstName) > 150 {
		v.add("first_name", ErrNameTooLong)
	}
	if utf8.RuneCountInString(u.LastName) > 150 {
		v.add("last_name", ErrNameTooLong)
	}
	return v.err()
}

// Normalize fills defaults: trimmed name, default color, active unless stated.
func (in AccountInput) Normalize() AccountInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.TrimSpace(in.Color)
	if in.Color == "" {
		in.Color = DefaultColor
	}
	if in.Active == nil {
		active := true
		in.Active = &active
	}
	return in
}

func (in AccountInput) Validate() error {
	v := validation{}
	v.add("name", validateName(in.Name))
	if !in.Type.Valid() {
		v.add("type", ErrInvalidType)
	}
	if in.OpeningBalance.IsNegative() || in.OpeningBalance.GreaterThanOrEqual(MoneyFromDecimal(maxMoney)) ||
		!in.OpeningBalance.Decimal().Equal(in.OpeningBalance.Decimal().Round(2)) {
		v.add("opening_balance", ErrInvalidAmount)
	}
	if !colorPattern.MatchString(in.Color) {
		v.add("color", ErrInvalidColor)
	}
	return v.err()
}

func (in CategoryInput) Normalize() CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Icon = strings.TrimSpace(in.Icon)
	in.Color = strings.TrimSpace(in.Color)
	if in.Color == "" {
		in.Color = DefaultColor
	}
	return in
}

func (in CategoryInput) Validate() error {
	v := validation{}
	v.add("name", validateName(in.Name))
	if !in.Type.Valid() {
		v.add("type", ErrInvalidType)
	}
	if utf8.RuneCountInString(in.Icon) > 50 {
		v.add("icon", ErrNameTooLong)
	}
	if !colorPattern.MatchString(in.Color) {
		v.add("color", ErrInvalidColor)
	}
	return v.err()
}

func (in TransactionInput) Normalize() TransactionInput {
	in.Description = strings.TrimSpace(in.Description)
	if in.CategoryID != nil && *in.CategoryID == 0 {
		in.CategoryID = nil
	}
	return in
}

func (in TransactionInput) Validate() error {
	v := validation{}
	if !in.Type.Valid() {
		v.add("type", ErrInvalidType)
	}
	if in.AccountID <= 0 {
		v.add("account_id", ErrMissingAccount)
	}
	v.add("amount", in.Amount.ValidateAmount())
	v.add("date", in.Date.Validate())
	if utf8.RuneCountInString(in.Description) > 255 {
		v.add("description", ErrDescriptionTooLong)
	}
	return v.err()
}

func validateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > 100 {
		return ErrNameTooLong
	}
	return nil
}

// Label returns the description, or "<type> - <amount>" when it is empty.
func (t Transaction) Label() string {
	if t.Description != "" {
		return t.Description
	}
	return string(t.Type) + " - " + t.Amount.String()
}
