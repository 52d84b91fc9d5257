// Package commands implements the saldoctl subcommands. The ledger commands
// open the ledger, run one service call and close it again.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/google/subcommands"

	"saldo/internal/backend"
	"saldo/internal/core"
)

// Env is what the commands share: where to write and how to reach the ledger.
type Env struct {
	Out      io.Writer
	Err      io.Writer
	Currency string
	Open     func(ctx context.Context) (*backend.Ledger, error)
}

// Register adds every subcommand to c, grouped the way `help` lists them.
func Register(c *subcommands.Commander, env *Env) {
	c.Register(&userAddCmd{base: base{env: env}}, "users")
	c.Register(&userRmCmd{base: base{env: env}}, "users")

	c.Register(&accountAddCmd{base: base{env: env}}, "accounts")
	c.Register(&accountLsCmd{base: base{env: env}}, "accounts")
	c.Register(&accountRmCmd{base: base{env: env}}, "accounts")

	c.Register(&categoryAddCmd{base: base{env: env}}, "categories")
	c.Register(&categoryLsCmd{base: base{env: env}}, "categories")
	c.Register(&categoryRmCmd{base: base{env: env}}, "categories")

	c.Register(&txAddCmd{base: base{env: env}}, "transactions")
	c.Register(&txEditCmd{base: base{env: env}}, "transactions")
	c.Register(&txRmCmd{base: base{env: env}}, "transactions")
	c.Register(&txLsCmd{base: base{env: env}}, "transactions")

	c.Register(&dashboardCmd{base: base{env: env}}, "reports")
	c.Register(&reconcileCmd{base: base{env: env}}, "reports")

	c.Register(&sheetsLoginCmd{base: base{env: env}}, "export")
}

// errUsage marks a problem with the flags rather than with the ledger.
var errUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// base carries the environment and the acting user.
type base struct {
	env  *Env
	user int64
}

func (b *base) userFlag(f *flag.FlagSet) {
	f.Int64Var(&b.user, "user", 0, "Acting user id (required).")
}

func (b *base) owner() (core.UserID, error) {
	if b.user <= 0 {
		return 0, usageError("-user is required")
	}
	return core.UserID(b.user), nil
}

// run opens the ledger around fn and turns its error into an exit status.
func (b *base) run(ctx context.Context, fn func(ctx context.Context, l *backend.Ledger) error) subcommands.ExitStatus {
	ledger, err := b.env.Open(ctx)
	if err != nil {
		fmt.Fprintf(b.env.Err, "Error: open ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer ledger.Cleanup()

	return b.exit(fn(ctx, ledger))
}

func (b *base) exit(err error) subcommands.ExitStatus {
	if err == nil {
		return subcommands.ExitSuccess
	}
	if errors.Is(err, errUsage) {
		fmt.Fprintf(b.env.Err, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintln(b.env.Err, "Error: validation failed")
		fields := make([]string, 0, len(ve.Fields))
		for field := range ve.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(b.env.Err, "  %s: %s\n", field, ve.Fields[field])
		}
		return subcommands.ExitFailure
	}
	if errors.Is(err, core.ErrTransient) {
		fmt.Fprintf(b.env.Err, "Error: %v (nothing was saved, try again)\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(b.env.Err, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func (b *base) money(m core.Money) string {
	return m.Format(b.env.Currency)
}

func (b *base) table() *tabwriter.Writer {
	return tabwriter.NewWriter(b.env.Out, 0, 0, 2, ' ', 0)
}

// optionalFlags records which flags were given on the command line.
func optionalFlags(f *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

func parseDate(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.FieldError("date", err)
	}
	return d, nil
}

func parseAmount(field, s string) (core.Money, error) {
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, core.FieldError(field, err)
	}
	return m, nil
}

func categoryRef(id int64) *core.CategoryID {
	if id <= 0 {
		return nil
	}
	c := core.CategoryID(id)
	return &c
}
