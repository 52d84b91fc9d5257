package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"saldo/internal/backend"
	"saldo/internal/core"
)

type userAddCmd struct {
	base
	email, first, last string
}

func (*userAddCmd) Name() string     { return "user-add" }
func (*userAddCmd) Synopsis() string { return "register a user" }
func (*userAddCmd) Usage() string {
	return `saldoctl user-add -email <address> [-first <name>] [-last <name>]
`
}

func (c *userAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "Email address, unique across users.")
	f.StringVar(&c.first, "first", "", "First name.")
	f.StringVar(&c.last, "last", "", "Last name.")
}

func (c *userAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		u, err := l.Users.Register(ctx, core.NewUser{Email: c.email, FirstName: c.first, LastName: c.last})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "user %d registered (%s)\n", u.ID, u.Email)
		return nil
	})
}

type userRmCmd struct{ base }

func (*userRmCmd) Name() string     { return "user-rm" }
func (*userRmCmd) Synopsis() string { return "delete a user and everything they own" }
func (*userRmCmd) Usage() string    { return "saldoctl user-rm -user <id>\n" }

func (c *userRmCmd) SetFlags(f *flag.FlagSet) { c.userFlag(f) }

func (c *userRmCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.owner()
	if err != nil {
		return c.exit(err)
	}
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		if err := l.Users.Delete(ctx, owner); err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "user %d deleted\n", owner)
		return nil
	})
}

type accountAddCmd struct {
	base
	name, kind, opening, color string
	inactive                   bool
}

func (*accountAddCmd) Name() string     { return "account-add" }
func (*accountAddCmd) Synopsis() string { return "open an account" }
func (*accountAddCmd) Usage() string {
	return `saldoctl account-add -user <id> -name <name> [-type checking|savings|investment|cash|other] [-opening <amount>] [-color <#rrggbb>]

  The balance starts at the opening amount and only moves through transactions.
`
}

func (c *accountAddCmd) SetFlags(f *flag.FlagSet) {
	c.userFlag(f)
	f.StringVar(&c.name, "name", "", "Account name.")
	f.StringVar(&c.kind, "type", string(core.Checking), "Account type.")
	f.StringVar(&c.opening, "opening", "0", "Opening balance.")
	f.StringVar(&c.color, "color", "", "Display color, e.g. #06b6d4.")
	f.BoolVar(&c.inactive, "inactive", false, "Exclude the account from the total balance.")
}

func (c *accountAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.owner()
	if err != nil {
		return c.exit(err)
	}
	opening, err := parseAmount("opening_balance", c.opening)
	if err != nil {
		return c.exit(err)
	}
	active := !c.inactive
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		acc, err := l.Accounts.Create(ctx, owner, core.AccountInput{
			Name:           c.name,
			Type:           core.AccountType(c.kind),
			OpeningBalance: opening,
			Color:          c.color,
			Active:         &active,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "account %d %q opened with %s\n", acc.ID, acc.Name, c.money(acc.Balance))
		return nil
	})
}

type accountLsCmd struct{ base }

func (*accountLsCmd) Name() string     { return "account-ls" }
func (*accountLsCmd) Synopsis() string { return "list accounts with their balances" }
func (*accountLsCmd) Usage() string    { return "saldoctl account-ls -user <id>\n" }

func (c *accountLsCmd) SetFlags(f *flag.FlagSet) { c.userFlag(f) }

func (c *accountLsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.owner()
	if err != nil {
		return c.exit(err)
	}
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		accounts, err := l.Accounts.List(ctx, owner)
		if err != nil {
			return err
		}
		w := c.table()
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tOPENING\tBALANCE\tACTIVE")
		for _, a := range accounts {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n", a.ID, a.Name, a.Type, c.money(a.OpeningBalance), c.money(a.Balance), a.Active)
		}
		return w.Flush()
	})
}

type accountRmCmd struct {
	base
	id int64
}

func (*accountRmCmd) Name() string     { return "account-rm" }
func (*accountRmCmd) Synopsis() string { return "delete an account and its transactions" }
func (*accountRmCmd) Usage() string    { return "saldoctl account-rm -user <id> -id <account>\n" }

func (c *accountRmCmd) SetFlags(f *flag.FlagSet) {
	c.userFlag(f)
	f.Int64Var(&c.id, "id", 0, "Account id.")
}

func (c *accountRmCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.owner()
	if err != nil {
		return c.exit(err)
	}
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		if err := l.Accounts.Delete(ctx, owner, core.AccountID(c.id)); err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "account %d deleted\n", c.id)
		return nil
	})
}

type categoryAddCmd struct {
	base
	name, kind, icon, color string
}

func (*categoryAddCmd) Name() string     { return "category-add" }
func (*categoryAddCmd) Synopsis() string { return "create a category" }
func (*categoryAddCmd) Usage() string {
	return "saldoctl category-add -user <id> -name <name> [-type income|expense] [-icon <icon>] [-color <#rrggbb>]\n"
}

func (c *categoryAddCmd) SetFlags(f *flag.FlagSet) {
	c.userFlag(f)
	f.StringVar(&c.name, "name", "", "Category name.")
	f.StringVar(&c.kind, "type", string(core.Expense), "Entry type the category is meant for.")
	f.StringVar(&c.icon, "icon", "", "Icon name.")
	f.StringVar(&c.color, "color", "", "Display color.")
}

func (c *categoryAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.owner()
	if err != nil {
		return c.exit(err)
	}
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		cat, err := l.Categories.Create(ctx, owner, core.CategoryInput{
			Name:  c.name,
			Type:  core.EntryType(c.kind),
			Icon:  c.icon,
			Color: c.color,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "category %d %q created\n", cat.ID, cat.Name)
		return nil
	})
}

type categoryLsCmd struct{ base }

func (*categoryLsCmd) Name() string     { return "category-ls" }
func (*categoryLsCmd) Synopsis() string { return "list categories" }
func (*categoryLsCmd) Usage() string    { return "saldoctl category-ls -user <id>\n" }

func (c *categoryLsCmd) SetFlags(f *flag.FlagSet) { c.userFlag(f) }

func (c *categoryLsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.owner()
	if err != nil {
		return c.exit(err)
	}
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		cats, err := l.Categories.List(ctx, owner)
		if err != nil {
			return err
		}
		w := c.table()
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tICON")
		for _, cat := range cats {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", cat.ID, cat.Name, cat.Type, cat.Icon)
		}
		return w.Flush()
	})
}

type categoryRmCmd struct {
	base
	id int64
}

func (*categoryRmCmd) Name() string { return "category-rm" }
func (*categoryRmCmd) Synopsis() string {
	return "delete a category, leaving its transactions uncategorized"
}
func (*categoryRmCmd) Usage() string {
	return "saldoctl category-rm -user <id> -id <category>\n"
}

func (c *categoryRmCmd) SetFlags(f *flag.FlagSet) {
	c.userFlag(f)
	f.Int64Var(&c.id, "id", 0, "Category id.")
}

func (c *categoryRmCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.owner()
	if err != nil {
		return c.exit(err)
	}
	return c.run(ctx, func(ctx context.Context, l *backend.Ledger) error {
		if err := l.Categories.Delete(ctx, owner, core.CategoryID(c.id)); err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "category %d deleted\n", c.id)
		return nil
	})
}
