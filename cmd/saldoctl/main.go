package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"

	"saldo/internal/backend"
	"saldo/internal/cli"
	"saldo/internal/commands"
	applog "saldo/internal/log"
)

var verbose = flag.Bool("v", false, "Log at LOG_LEVEL instead of warnings only.")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	cfg, cfgErr := cli.LoadConfig()

	env := &commands.Env{
		Out:      os.Stdout,
		Err:      os.Stderr,
		Currency: cfg.Currency,
	}
	commands.Register(commander, env)
	flag.Parse()

	if cfgErr != nil {
		fmt.Fprintln(os.Stderr, cfgErr)
		os.Exit(int(subcommands.ExitUsageError))
	}

	level := slog.LevelWarn
	if *verbose {
		level = cfg.SlogLevel()
	}
	logger := applog.New(applog.Config{Level: level, Component: applog.ComponentCLI, Writer: os.Stderr})
	applog.SetDefault(logger)

	env.Open = func(ctx context.Context) (*backend.Ledger, error) {
		ledger, _, err := cli.InitLedger(ctx, logger, cfg, false)
		return ledger, err
	}

	os.Exit(int(commander.Execute(context.Background())))
}
