package commands

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"saldo/internal/backend"
	"saldo/internal/core"
	"saldo/internal/services"
)

// txFlags are the transaction fields shared by tx-add and tx-edit.
type txFlags struct {
	kind     string
	account  int64
	category int64
	amount   string
	date     string
	desc     string
}

func (t *txFlags) set(f *flag.FlagSet) {
	f.StringVar(&t.kind, "type", string(core.Expense), "income or expense.")
	f.Int64Var(&t.account, "account", 0, "Account id.")
	f.Int64Var(&t.category, "category", 0, "Category id; 0 leaves the transaction uncategorized.")
	f.StringVar(&t.amount, "amount", "", "Positive amount, e.g. 50.00.")
	f.StringVar(&t.date, "date", "", "Date as YYYY-MM-DD. Defaults to today for tx-add.")
	f.StringVar(&t.desc, "desc", "", "Description.")
}

// apply overwrites the fields of in named in given.
func (t *txFlags) apply(in core.TransactionInput, given map[string]bool) (core.TransactionInput, error) {
	if given["type"] {
		in.Type = core.EntryType(t.kind)
	}
	if given["account"] {
		in.AccountID = core.AccountID(t.account)
	}
	if given["category"] {
		in.CategoryID = categoryRef(t.category)
	}
	if given["amount"] {
		amount, err := parseAmount("amount", t.amount)
		if err != nil {
			return in, err
		}
		in.Amount = amount
	}
	if given["date"] {
		date, err := parseDate(t.date)
		if err != nil {
			return in, err
		}
		in.Date = date
	}
	if given["desc"] {
		in.Description = t.desc
	}
	return in, nil
}

func (b *base) printChange(change core.TransactionChange) {
	fmt.Fprintf(b.env.Out, "transaction %d %s", change.Transaction.ID, change.Kind)
	for _, bal := range change.Balances {
		fmt.Fprintf(b.env.Out, ", account %d balance %s", bal.AccountID, b.money(bal.Balance))
	}
	fmt.Fprintln(b.env.Out)
}

type txAddCmd struct {
	base
	txFlags
}

func (*txAddCmd) Name() string     { return "tx-add" }
func (*txAddCmd) Synopsis() string { return "record an income or expense" }
func (*txAddCmd) Usage() string {
	return `saldoctl tx-add -user <id> -account <id> -amount <amount> [-type income|expense] [-category <id>] [-date YYYY-MM-DD] [-desc <text>]

  The transaction and its balance effect commit together.
`
}

func (c *txAddCmd) SetFlags(f *flag.FlagSet) {
	c.userFlag(f)
	c.txFlags.set(f)
}

func (c *txAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.owner()
	if err != nil {
		return c.exit(err)
	}
	given := optionalFlags(f)
	given["type"], given["account"], given["amount"] = true, true, true
	in, err := c.apply(core.TransactionInput{Date: core.DateOf(time.Now())}, given)
	if err != nil {
		return c.exit(err)
	}
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		change, err := l.Transactions.Create(ctx, owner, in)
		if err != nil {
			return err
		}
		c.printChange(change)
		return nil
	})
}

type txEditCmd struct {
	base
	txFlags
	id int64
}

func (*txEditCmd) Name() string     { return "tx-edit" }
func (*txEditCmd) Synopsis() string { return "change fields of a transaction" }
func (*txEditCmd) Usage() string {
	return `saldoctl tx-edit -user <id> -id <transaction> [-type ...] [-account ...] [-category ...] [-amount ...] [-date ...] [-desc ...]

  Only the flags given are changed. The old balance effect is reverted and the
  new one applied in the same unit, also when the account changes.
`
}

func (c *txEditCmd) SetFlags(f *flag.FlagSet) {
	c.userFlag(f)
	c.txFlags.set(f)
	f.Int64Var(&c.id, "id", 0, "Transaction id.")
}

func (c *txEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.owner()
	if err != nil {
		return c.exit(err)
	}
	given := optionalFlags(f)
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		id := core.TransactionID(c.id)
		current, err := l.Transactions.Get(ctx, owner, id)
		if err != nil {
			return err
		}
		in, err := c.apply(core.TransactionInput{
			Type:        current.Type,
			AccountID:   current.AccountID,
			CategoryID:  current.CategoryID,
			Amount:      current.Amount,
			Date:        current.Date,
			Description: current.Description,
		}, given)
		if err != nil {
			return err
		}
		change, err := l.Transactions.Update(ctx, owner, id, in)
		if err != nil {
			return err
		}
		c.printChange(change)
		return nil
	})
}

type txRmCmd struct {
	base
	id int64
}

func (*txRmCmd) Name() string     { return "tx-rm" }
func (*txRmCmd) Synopsis() string { return "delete a transaction and revert its balance effect" }
func (*txRmCmd) Usage() string    { return "saldoctl tx-rm -user <id> -id <transaction>\n" }

func (c *txRmCmd) SetFlags(f *flag.FlagSet) {
	c.userFlag(f)
	f.Int64Var(&c.id, "id", 0, "Transaction id.")
}

func (c *txRmCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.owner()
	if err != nil {
		return c.exit(err)
	}
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		change, err := l.Transactions.Delete(ctx, owner, core.TransactionID(c.id))
		if err != nil {
			return err
		}
		c.printChange(change)
		return nil
	})
}

type txLsCmd struct {
	base
	account int64
	year    int
	month   int
}

func (*txLsCmd) Name() string     { return "tx-ls" }
func (*txLsCmd) Synopsis() string { return "list transactions, newest first" }
func (*txLsCmd) Usage() string {
	return "saldoctl tx-ls -user <id> [-account <id>] [-year <yyyy> [-month <m>]]\n"
}

func (c *txLsCmd) SetFlags(f *flag.FlagSet) {
	c.userFlag(f)
	f.Int64Var(&c.account, "account", 0, "Only this account.")
	f.IntVar(&c.year, "year", 0, "Only this year.")
	f.IntVar(&c.month, "month", 0, "Only this month of -year.")
}

func (c *txLsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.owner()
	if err != nil {
		return c.exit(err)
	}
	filter := services.ListFilter{AccountID: core.AccountID(c.account), Year: c.year, Month: c.month}
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		txs, err := l.Transactions.List(ctx, owner, filter)
		if err != nil {
			return err
		}
		w := c.table()
		fmt.Fprintln(w, "ID\tDATE\tTYPE\tACCOUNT\tCATEGORY\tAMOUNT\tDESCRIPTION")
		for _, tx := range txs {
			category := "-"
			if tx.CategoryID != nil {
				category = fmt.Sprint(*tx.CategoryID)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
				tx.ID, tx.Date, tx.Type, tx.AccountID, category, c.money(tx.Amount), tx.Label())
		}
		return w.Flush()
	})
}
