package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/services"
	"saldo/internal/storage"
)

type testServer struct {
	srv  *Server
	repo *storage.SQLiteRepository
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "saldo.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	dash := services.NewDashboardService(repo, nil, 5)
	svc := Services{
		Users:        services.NewUserService(repo, dash),
		Accounts:     services.NewAccountService(repo, dash),
		Categories:   services.NewCategoryService(repo, dash),
		Transactions: services.NewTransactionService(repo, nil, dash),
		Dashboard:    dash,
		Reconciler:   services.NewReconcilerService(repo, dash, false),
		Storage:      repo,
	}
	logger := applog.New(applog.Config{Level: slog.LevelError, Component: applog.ComponentHTTP, Writer: io.Discard})
	srv := NewServer(":0", svc, Options{RateLimitPerMinute: rateLimit, Logger: logger})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &testServer{srv: srv, repo: repo}
}

func (ts *testServer) do(t *testing.T, method, path string, user core.UserID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != 0 {
		req.Header.Set(HeaderUserID, fmt.Sprint(int64(user)))
	}
	rr := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body %s", rr.Code, want, rr.Body.String())
	}
}

func (ts *testServer) register(t *testing.T, email string) core.UserID {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/api/users", 0, `{"email":"`+email+`","first_name":"Ana"}`)
	expectStatus(t, rr, http.StatusCreated)
	return decode[core.User](t, rr).ID
}

func (ts *testServer) account(t *testing.T, owner core.UserID, opening string) core.AccountID {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/api/accounts", owner, `{"name":"Checking","type":"checking","opening_balance":"`+opening+`"}`)
	expectStatus(t, rr, http.StatusCreated)
	return decode[core.Account](t, rr).ID
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, 0)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := ts.do(t, http.MethodGet, path, 0, "")
		expectStatus(t, rr, http.StatusOK)
		if got := rr.Header().Get("Content-Type"); got != "application/json" {
			t.Errorf("%s content type = %q", path, got)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s missing request id", path)
		}
	}

	ts.repo.Close()
	rr := ts.do(t, http.MethodGet, "/readyz", 0, "")
	expectStatus(t, rr, http.StatusServiceUnavailable)
}

func TestIdentityRequired(t *testing.T) {
	ts := newTestServer(t, 0)

	for _, header := range []string{"", "abc", "0", "-4"} {
		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		if header != "" {
			req.Header.Set(HeaderUserID, header)
		}
		rr := httptest.NewRecorder()
		ts.srv.Handler.ServeHTTP(rr, req)
		expectStatus(t, rr, http.StatusUnauthorized)
	}

	// Registration needs no identity.
	ts.register(t, "ana@example.com")
}

func TestRegisterAndDeleteUser(t *testing.T) {
	ts := newTestServer(t, 0)
	id := ts.register(t, "ana@Example.com")

	rr := ts.do(t, http.MethodGet, "/api/me", id, "")
	expectStatus(t, rr, http.StatusOK)
	if got := decode[core.User](t, rr).Email; got != "ana@example.com" {
		t.Fatalf("email = %q", got)
	}

	rr = ts.do(t, http.MethodPost, "/api/users", 0, `{"email":"ana@example.com"}`)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	if body := decode[ErrorBody](t, rr); body.Fields["email"] == "" {
		t.Fatalf("expected email field error, got %+v", body)
	}

	expectStatus(t, ts.do(t, http.MethodDelete, "/api/me", id, ""), http.StatusNoContent)
	expectStatus(t, ts.do(t, http.MethodGet, "/api/me", id, ""), http.StatusNotFound)
}

func TestTransactionLifecycleMovesBalance(t *testing.T) {
	ts := newTestServer(t, 0)
	owner := ts.register(t, "ana@example.com")
	acc := ts.account(t, owner, "1000.00")

	rr := ts.do(t, http.MethodPost, "/api/categories", owner, `{"name":"Groceries","type":"expense"}`)
	expectStatus(t, rr, http.StatusCreated)
	cat := decode[core.Category](t, rr).ID

	body := fmt.Sprintf(`{"type":"expense","account_id":%d,"category_id":%d,"amount":"50.00","date":"2025-03-10","description":"market"}`, acc, cat)
	rr = ts.do(t, http.MethodPost, "/api/transactions", owner, body)
	expectStatus(t, rr, http.StatusCreated)
	change := decode[core.TransactionChange](t, rr)
	if bal, _ := change.BalanceOf(acc); bal.String() != "950.00" {
		t.Fatalf("balance after create = %s, want 950.00", bal)
	}
	txPath := fmt.Sprintf("/api/transactions/%d", change.Transaction.ID)

	body = fmt.Sprintf(`{"type":"expense","account_id":%d,"category_id":%d,"amount":75,"date":"2025-03-10"}`, acc, cat)
	rr = ts.do(t, http.MethodPut, txPath, owner, body)
	expectStatus(t, rr, http.StatusOK)
	if bal, _ := decode[core.TransactionChange](t, rr).BalanceOf(acc); bal.String() != "925.00" {
		t.Fatalf("balance after edit = %s, want 925.00", bal)
	}

	rr = ts.do(t, http.MethodGet, "/api/transactions?year=2025&month=3", owner, "")
	expectStatus(t, rr, http.StatusOK)
	if txs := decode[[]core.Transaction](t, rr); len(txs) != 1 || txs[0].Amount.String() != "75.00" {
		t.Fatalf("list = %+v", txs)
	}

	rr = ts.do(t, http.MethodDelete, txPath, owner, "")
	expectStatus(t, rr, http.StatusOK)
	if bal, _ := decode[core.TransactionChange](t, rr).BalanceOf(acc); bal.String() != "1000.00" {
		t.Fatalf("balance after delete = %s, want 1000.00", bal)
	}

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/api/accounts/%d", acc), owner, "")
	expectStatus(t, rr, http.StatusOK)
	if got := decode[map[string]any](t, rr)["balance"]; got != "1000.00" {
		t.Fatalf("account balance on the wire = %v", got)
	}

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/api/accounts/%d/reconcile", acc), owner, "")
	expectStatus(t, rr, http.StatusOK)
	if rec := decode[map[string]any](t, rr); rec["in_sync"] != true || rec["drift"] != "0.00" {
		t.Fatalf("reconcile = %v", rec)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	ts := newTestServer(t, 0)
	ana := ts.register(t, "ana@example.com")
	bia := ts.register(t, "bia@example.com")
	acc := ts.account(t, ana, "100.00")

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rr := ts.do(t, method, fmt.Sprintf("/api/accounts/%d", acc), bia, "")
		expectStatus(t, rr, http.StatusNotFound)
	}

	body := fmt.Sprintf(`{"type":"income","account_id":%d,"amount":"10","date":"2025-03-01"}`, acc)
	rr := ts.do(t, http.MethodPost, "/api/transactions", bia, body)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	if msg := decode[ErrorBody](t, rr).Fields["account_id"]; msg != "select a valid choice" {
		t.Fatalf("account_id error = %q", msg)
	}

	rr = ts.do(t, http.MethodGet, "/api/accounts", bia, "")
	expectStatus(t, rr, http.StatusOK)
	if accs := decode[[]core.Account](t, rr); len(accs) != 0 {
		t.Fatalf("bia sees %d accounts", len(accs))
	}
}

func TestRequestErrors(t *testing.T) {
	ts := newTestServer(t, 0)
	owner := ts.register(t, "ana@example.com")
	acc := ts.account(t, owner, "0")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
		field  string
	}{
		{"malformed json", http.MethodPost, "/api/transactions", `{"type":`, http.StatusBadRequest, ""},
		{"empty body", http.MethodPost, "/api/accounts", "", http.StatusBadRequest, ""},
		{"trailing data", http.MethodPost, "/api/categories", `{"name":"a","type":"income"} {}`, http.StatusBadRequest, ""},
		{"bad amount", http.MethodPost, "/api/transactions", fmt.Sprintf(`{"type":"expense","account_id":%d,"amount":"abc","date":"2025-01-01"}`, acc), http.StatusUnprocessableEntity, "amount"},
		{"zero amount", http.MethodPost, "/api/transactions", fmt.Sprintf(`{"type":"expense","account_id":%d,"amount":"0","date":"2025-01-01"}`, acc), http.StatusUnprocessableEntity, "amount"},
		{"bad date", http.MethodPost, "/api/transactions", fmt.Sprintf(`{"type":"expense","account_id":%d,"amount":"1","date":"01/02/2025"}`, acc), http.StatusUnprocessableEntity, "date"},
		{"bad opening balance", http.MethodPost, "/api/accounts", `{"name":"x","type":"cash","opening_balance":"1.234"}`, http.StatusUnprocessableEntity, "opening_balance"},
		{"bad account type", http.MethodPost, "/api/accounts", `{"name":"x","type":"crypto"}`, http.StatusUnprocessableEntity, "type"},
		{"month out of range", http.MethodGet, "/api/transactions?year=2025&month=13", "", http.StatusUnprocessableEntity, "month"},
		{"month without year", http.MethodGet, "/api/transactions?month=3", "", http.StatusUnprocessableEntity, "year"},
		{"bad account filter", http.MethodGet, "/api/transactions?account=x", "", http.StatusUnprocessableEntity, "account"},
		{"malformed id", http.MethodGet, "/api/transactions/abc", "", http.StatusNotFound, ""},
		{"unknown id", http.MethodGet, "/api/categories/999", "", http.StatusNotFound, ""},
		{"method not allowed", http.MethodPatch, "/api/accounts", "", http.StatusMethodNotAllowed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, tt.method, tt.path, owner, tt.body)
			expectStatus(t, rr, tt.want)
			if tt.field != "" {
				if body := decode[ErrorBody](t, rr); body.Fields[tt.field] == "" {
					t.Fatalf("expected error on %q, got %+v", tt.field, body)
				}
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t, 0)
	owner := ts.register(t, "ana@example.com")
	ts.account(t, owner, "250.50")

	rr := ts.do(t, http.MethodGet, "/api/dashboard", owner, "")
	expectStatus(t, rr, http.StatusOK)
	d := decode[map[string]any](t, rr)
	if d["total_balance"] != "250.50" {
		t.Fatalf("total_balance = %v", d["total_balance"])
	}
	if recent, ok := d["recent"].([]any); !ok || len(recent) != 0 {
		t.Fatalf("recent = %v", d["recent"])
	}

	expectStatus(t, ts.do(t, http.MethodGet, "/api/dashboard", owner+100, ""), http.StatusNotFound)
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	ts := newTestServer(t, 2)
	owner := ts.register(t, "ana@example.com")
	ts.account(t, owner, "1")

	rr := ts.do(t, http.MethodPost, "/api/accounts", owner, `{"name":"x","type":"cash"}`)
	expectStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}

	// Reads are not limited.
	expectStatus(t, ts.do(t, http.MethodGet, "/api/accounts", owner, ""), http.StatusOK)
}

func TestShutdownIsIdempotent(t *testing.T) {
	ts := newTestServer(t, 0)
	if err := ts.srv.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := ts.srv.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestTransientFailureAnswers503(t *testing.T) {
	ts := newTestServer(t, 0)
	owner := ts.register(t, "ana@example.com")
	ts.repo.Close()

	rr := ts.do(t, http.MethodGet, "/api/accounts", owner, "")
	expectStatus(t, rr, http.StatusServiceUnavailable)
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	if !errors.Is(core.Transient("x", errors.New("closed")), core.ErrTransient) {
		t.Fatal("transient wrapper lost its marker")
	}
}
