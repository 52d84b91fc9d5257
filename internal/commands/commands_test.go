package commands

import (
	"bytes"
	"context"
	"flag"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"

	"saldo/internal/backend"
	"saldo/internal/core"
)

type harness struct {
	dbPath string
	out    bytes.Buffer
	err    bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{dbPath: filepath.Join(t.TempDir(), "saldo.db")}
}

// run executes one saldoctl invocation against the harness database.
func (h *harness) run(t *testing.T, args ...string) subcommands.ExitStatus {
	t.Helper()
	h.out.Reset()
	h.err.Reset()

	env := &Env{
		Out:      &h.out,
		Err:      &h.err,
		Currency: "EUR",
		Open: func(ctx context.Context) (*backend.Ledger, error) {
			return backend.NewFactory(nil).CreateLedger(ctx, backend.Config{
				SQLiteDBPath:       h.dbPath,
				RecentTransactions: 5,
			})
		},
	}

	fs := flag.NewFlagSet("saldoctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	commander := subcommands.NewCommander(fs, "saldoctl")
	commander.Output, commander.Error = io.Discard, io.Discard
	Register(commander, env)
	return commander.Execute(context.Background())
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if status := h.run(t, args...); status != subcommands.ExitSuccess {
		t.Fatalf("%v: status %d, stderr %q", args, status, h.err.String())
	}
	return h.out.String()
}

func eur(s string) string { return core.MustParseMoney(s).Format("EUR") }

func TestLedgerRoundTrip(t *testing.T) {
	h := newHarness(t)

	if out := h.mustRun(t, "user-add", "-email", "ana@example.com", "-first", "Ana"); !strings.Contains(out, "user 1 registered") {
		t.Fatalf("user-add output %q", out)
	}
	h.mustRun(t, "account-add", "-user", "1", "-name", "Checking", "-opening", "1000")
	h.mustRun(t, "category-add", "-user", "1", "-name", "Groceries")

	out := h.mustRun(t, "tx-add", "-user", "1", "-account", "1", "-category", "1", "-amount", "50", "-date", "2025-03-10", "-desc", "market")
	if !strings.Contains(out, "transaction 1 created") || !strings.Contains(out, eur("950")) {
		t.Fatalf("tx-add output %q", out)
	}

	out = h.mustRun(t, "tx-edit", "-user", "1", "-id", "1", "-amount", "75")
	if !strings.Contains(out, "transaction 1 updated") || !strings.Contains(out, eur("925")) {
		t.Fatalf("tx-edit output %q", out)
	}

	out = h.mustRun(t, "tx-ls", "-user", "1", "-year", "2025", "-month", "3")
	if !strings.Contains(out, "market") || !strings.Contains(out, eur("75")) || !strings.Contains(out, "2025-03-10") {
		t.Fatalf("tx-ls output %q", out)
	}

	out = h.mustRun(t, "account-ls", "-user", "1")
	if !strings.Contains(out, "Checking") || !strings.Contains(out, eur("925")) {
		t.Fatalf("account-ls output %q", out)
	}

	out = h.mustRun(t, "reconcile", "-user", "1")
	if !strings.Contains(out, "ok") {
		t.Fatalf("reconcile output %q", out)
	}

	out = h.mustRun(t, "tx-rm", "-user", "1", "-id", "1")
	if !strings.Contains(out, "transaction 1 deleted") || !strings.Contains(out, eur("1000")) {
		t.Fatalf("tx-rm output %q", out)
	}

	h.mustRun(t, "category-rm", "-user", "1", "-id", "1")
	if out := h.mustRun(t, "category-ls", "-user", "1"); strings.Contains(out, "Groceries") {
		t.Fatalf("category still listed: %q", out)
	}
	h.mustRun(t, "account-rm", "-user", "1", "-id", "1")
	h.mustRun(t, "user-rm", "-user", "1")
}

func TestTxEditKeepsUnsetFields(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "user-add", "-email", "ana@example.com")
	h.mustRun(t, "account-add", "-user", "1", "-name", "A", "-opening", "100")
	h.mustRun(t, "account-add", "-user", "1", "-name", "B", "-opening", "100")
	h.mustRun(t, "tx-add", "-user", "1", "-account", "1", "-type", "income", "-amount", "20", "-date", "2025-01-05", "-desc", "gift")

	out := h.mustRun(t, "tx-edit", "-user", "1", "-id", "1", "-account", "2")
	if !strings.Contains(out, "account 1 balance "+eur("100")) || !strings.Contains(out, "account 2 balance "+eur("120")) {
		t.Fatalf("moving accounts should revert one and apply the other: %q", out)
	}
	if out := h.mustRun(t, "tx-ls", "-user", "1", "-account", "2"); !strings.Contains(out, "gift") || !strings.Contains(out, "income") {
		t.Fatalf("unset fields changed: %q", out)
	}
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "user-add", "-email", "ana@example.com")
	h.mustRun(t, "account-add", "-user", "1", "-name", "Wallet", "-type", "cash", "-opening", "10")
	today := core.DateOf(time.Now()).String()
	h.mustRun(t, "tx-add", "-user", "1", "-account", "1", "-amount", "4", "-date", today, "-desc", "coffee")

	out := h.mustRun(t, "dashboard", "-user", "1")
	for _, want := range []string{"Total balance", eur("6"), "Expenses", eur("4"), "Recent transactions", "coffee"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard output missing %q:\n%s", want, out)
		}
	}
}

func TestErrors(t *testing.T) {
	h := newHarness(t)
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_FILE", "")
	h.mustRun(t, "user-add", "-email", "ana@example.com")
	h.mustRun(t, "account-add", "-user", "1", "-name", "Checking")

	tests := []struct {
		name   string
		args   []string
		status subcommands.ExitStatus
		stderr string
	}{
		{"missing user", []string{"account-ls"}, subcommands.ExitUsageError, "-user is required"},
		{"duplicate email", []string{"user-add", "-email", "ana@example.com"}, subcommands.ExitFailure, "email: already registered"},
		{"bad amount", []string{"tx-add", "-user", "1", "-account", "1", "-amount", "abc"}, subcommands.ExitFailure, "amount: invalid amount"},
		{"missing amount", []string{"tx-add", "-user", "1", "-account", "1"}, subcommands.ExitFailure, "amount:"},
		{"bad date", []string{"tx-add", "-user", "1", "-account", "1", "-amount", "1", "-date", "yesterday"}, subcommands.ExitFailure, "date: invalid date"},
		{"foreign account", []string{"tx-add", "-user", "1", "-account", "99", "-amount", "1"}, subcommands.ExitFailure, "account_id: select a valid choice"},
		{"unknown transaction", []string{"tx-rm", "-user", "1", "-id", "42"}, subcommands.ExitFailure, "not found"},
		{"bad account type", []string{"account-add", "-user", "1", "-name", "x", "-type", "crypto"}, subcommands.ExitFailure, "type: invalid type"},
		{"bad month", []string{"tx-ls", "-user", "1", "-year", "2025", "-month", "13"}, subcommands.ExitFailure, "month:"},
		{"reconcile needs a user", []string{"reconcile"}, subcommands.ExitUsageError, "-user is required"},
		{"sheets-login without client", []string{"sheets-login"}, subcommands.ExitUsageError, "GOOGLE_OAUTH_CLIENT_JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status := h.run(t, tt.args...); status != tt.status {
				t.Fatalf("status = %d, want %d (stderr %q)", status, tt.status, h.err.String())
			}
			if !strings.Contains(h.err.String(), tt.stderr) {
				t.Fatalf("stderr %q does not contain %q", h.err.String(), tt.stderr)
			}
		})
	}
}

func TestReconcileAll(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "user-add", "-email", "ana@example.com")
	h.mustRun(t, "account-add", "-user", "1", "-name", "Checking", "-opening", "5")

	out := h.mustRun(t, "reconcile", "-all")
	if !strings.Contains(out, "USER") || strings.Contains(out, "drift") {
		t.Fatalf("in-sync ledger should list no drift: %q", out)
	}
}
