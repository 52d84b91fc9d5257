package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ports "saldo/internal/sheets"
)

// Column layout of the activity sheet, A through K.
var activityHeader = []string{
	"Timestamp", "Event ID", "Kind", "User", "Transaction",
	"Date", "Type", "Account", "Category", "Amount", "Description",
}

const (
	lastColumn    = "K"
	eventIDColumn = "B"
)

func headerValues() []any {
	out := make([]any, len(activityHeader))
	for i, h := range activityHeader {
		out[i] = h
	}
	return out
}

// rowValues renders a row in column order. Amounts are written as plain
// decimal strings so the sheet locale cannot reinterpret the separator.
func rowValues(r ports.ActivityRow) []any {
	category := ""
	if r.CategoryID != nil {
		category = strconv.FormatInt(int64(*r.CategoryID), 10)
	}
	return []any{
		r.At.UTC().Format(time.RFC3339),
		r.EventID,
		string(r.Kind),
		int64(r.UserID),
		int64(r.TransactionID),
		r.Date.String(),
		string(r.Type),
		int64(r.AccountID),
		category,
		r.Amount.String(),
		r.Description,
	}
}

// eventIDs collects the non-empty values of the event id column, skipping the header.
func eventIDs(values [][]interface{}) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || strings.EqualFold(v, activityHeader[1]) {
			continue
		}
		out[v] = struct{}{}
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
