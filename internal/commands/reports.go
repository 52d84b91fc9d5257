package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"saldo/internal/backend"
	"saldo/internal/core"
)

type dashboardCmd struct{ base }

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "show balances and the current month" }
func (*dashboardCmd) Usage() string    { return "saldoctl dashboard -user <id>\n" }

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) { c.userFlag(f) }

func (c *dashboardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.owner()
	if err != nil {
		return c.exit(err)
	}
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		d, err := l.Dashboard.Summary(ctx, owner)
		if err != nil {
			return err
		}

		w := c.table()
		fmt.Fprintf(w, "Period\t%s .. %s\n", d.From, d.To)
		fmt.Fprintf(w, "Total balance\t%s\n", c.money(d.TotalBalance))
		fmt.Fprintf(w, "Income\t%s\n", c.money(d.MonthlyIncome))
		fmt.Fprintf(w, "Expenses\t%s\n", c.money(d.MonthlyExpenses))
		fmt.Fprintf(w, "Net\t%s\n", c.money(d.MonthlyNet))
		if err := w.Flush(); err != nil {
			return err
		}

		if len(d.ExpensesByCategory) > 0 {
			fmt.Fprintln(c.env.Out, "\nExpenses by category")
			w = c.table()
			for _, ca := range d.ExpensesByCategory {
				fmt.Fprintf(w, "  %s\t%s\n", ca.Name, c.money(ca.Amount))
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}

		if len(d.Recent) > 0 {
			fmt.Fprintln(c.env.Out, "\nRecent transactions")
			w = c.table()
			for _, tx := range d.Recent {
				fmt.Fprintf(w, "  %s\t%s\t%s\n", tx.Date, tx.Label(), c.money(core.SignedEffect(tx.Type, tx.Amount)))
			}
			return w.Flush()
		}
		return nil
	})
}

type reconcileCmd struct {
	base
	account int64
	all     bool
}

func (*reconcileCmd) Name() string { return "reconcile" }
func (*reconcileCmd) Synopsis() string {
	return "compare cached balances with the transaction history"
}
func (*reconcileCmd) Usage() string {
	return `saldoctl reconcile (-user <id> [-account <id>] | -all)

  Prints every checked account, or with -all only the ones out of sync.
  Drift is repaired when RECONCILE_REPAIR is enabled. Exits 1 on unrepaired drift.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	c.userFlag(f)
	f.Int64Var(&c.account, "account", 0, "Only this account.")
	f.BoolVar(&c.all, "all", false, "Check every account of every user.")
}

func (c *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var owner core.UserID
	if !c.all {
		var err error
		if owner, err = c.owner(); err != nil {
			return c.exit(err)
		}
	}

	var drifted bool
	status := c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		var (
			recs []core.Reconciliation
			err  error
		)
		switch {
		case c.all:
			recs, err = l.Reconciler.ReconcileAll(ctx)
		case c.account > 0:
			var rec core.Reconciliation
			rec, err = l.Reconciler.ReconcileAccount(ctx, owner, core.AccountID(c.account))
			recs = []core.Reconciliation{rec}
		default:
			recs, err = l.Reconciler.ReconcileUser(ctx, owner)
		}
		if err != nil {
			return err
		}

		w := c.table()
		fmt.Fprintln(w, "USER\tACCOUNT\tCACHED\tEXPECTED\tSTATUS")
		for _, r := range recs {
			state := "ok"
			switch {
			case r.Repaired:
				state = "repaired"
			case !r.InSync():
				state = "drift " + c.money(r.Drift())
				drifted = true
			}
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", r.UserID, r.AccountID, c.money(r.Cached), c.money(r.Expected), state)
		}
		return w.Flush()
	})
	if status == subcommands.ExitSuccess && drifted {
		return subcommands.ExitFailure
	}
	return status
}
