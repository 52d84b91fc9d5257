package log

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"saldo/internal/core"
)

func newBufferLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	return New(Config{Level: level, Component: ComponentApp, Writer: buf})
}

func TestLogger_ComponentIsLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, slog.LevelInfo).WithComponent(ComponentHTTP)

	l.Info("hello")

	out := buf.String()
	if strings.Count(out, "component=") != 1 {
		t.Fatalf("expected a single component attribute, got %q", out)
	}
	if !strings.Contains(out, "component=app.http") {
		t.Errorf("expected nested component name, got %q", out)
	}
	if l.Component() != "app.http" {
		t.Errorf("Component() = %q", l.Component())
	}
}

func TestLogger_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, JSON: true, Writer: &buf})

	l.Info("dropped")
	l.Warn("kept", FieldUserID, 7)

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, `"user_id":7`) || !strings.Contains(out, `"component":"app"`) {
		t.Errorf("unexpected JSON output: %q", out)
	}
}

func TestLogFields_ToSliceIsOrdered(t *testing.T) {
	cat := core.CategoryID(3)
	fields := NewFields().
		WithTransaction(core.Transaction{ID: 9, UserID: 1, AccountID: 2, CategoryID: &cat, Type: core.Expense, Amount: core.MustParseMoney("50")}).
		WithOperation(OpCreate)

	got := fields.ToSlice()
	var keys []string
	for i := 0; i < len(got); i += 2 {
		keys = append(keys, got[i].(string))
	}
	want := "account_id,amount,category_id,operation,transaction_id,type,user_id"
	if strings.Join(keys, ",") != want {
		t.Fatalf("keys = %v, want %s", keys, want)
	}
	if fields[FieldAmount] != "50.00" {
		t.Errorf("amount = %v", fields[FieldAmount])
	}
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{core.FieldError("email", errors.New("already registered")), ErrorTypeValidation},
		{fmt.Errorf("get: %w", core.ErrNotFound), ErrorTypeNotFound},
		{core.Transient("commit", errors.New("database is locked")), ErrorTypeTransient},
		{errors.New("boom"), ErrorTypeInternal},
	}
	for _, tt := range tests {
		if got := ErrorType(tt.err); got != tt.want {
			t.Errorf("ErrorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestMiddleware_CarriesRequestIDAndUser(t *testing.T) {
	var buf bytes.Buffer
	base := newBufferLogger(&buf, slog.LevelInfo)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithUser(r.Context(), 42)
		FromContext(ctx).Info("inside")
	})
	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(final))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/me", nil))

	out := buf.String()
	if !strings.Contains(out, "request_id=req-1") || !strings.Contains(out, "user_id=42") {
		t.Fatalf("context logger lost attributes: %q", out)
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()).Logger == nil {
		t.Fatal("expected a usable default logger")
	}
}

func TestStructuredLogger_HTTPEndLevel(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, slog.LevelInfo))
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", nil)

	sl.LogHTTPEnd(context.Background(), req, http.StatusServiceUnavailable, 12, "10.0.0.1")
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "status_code=503") {
		t.Fatalf("unexpected output: %q", buf.String())
	}

	buf.Reset()
	sl.LogHTTPEnd(context.Background(), req, http.StatusUnprocessableEntity, 3, "10.0.0.1")
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("expected warn for 4xx: %q", buf.String())
	}
}
