package commands

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	gsheets "saldo/internal/sheets/google"
)

type sheetsLoginCmd struct {
	base
	timeout time.Duration
}

func (*sheetsLoginCmd) Name() string { return "sheets-login" }
func (*sheetsLoginCmd) Synopsis() string {
	return "authorize the activity export with a Google account"
}
func (*sheetsLoginCmd) Usage() string {
	return `saldoctl sheets-login [-timeout 5m]

  Reads the OAuth client from GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE,
  waits for the consent redirect on http://localhost:$OAUTH_REDIRECT_PORT/callback
  and saves the token to GOOGLE_OAUTH_TOKEN_FILE. The worker prefers this token
  over Service Account credentials.
`
}

func (c *sheetsLoginCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.timeout, "timeout", 5*time.Minute, "How long to wait for the consent redirect.")
}

func (c *sheetsLoginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	settings, ok, err := gsheets.OAuthSettingsFromEnv()
	if err != nil {
		return c.exit(err)
	}
	if !ok {
		return c.exit(usageError("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE"))
	}
	cfg, err := settings.Config()
	if err != nil {
		return c.exit(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	tok, err := gsheets.Authorize(ctx, cfg, settings.RedirectPort, c.env.Out)
	if err != nil {
		return c.exit(fmt.Errorf("authorize: %w", err))
	}
	if err := gsheets.SaveToken(settings.TokenFile, tok); err != nil {
		return c.exit(err)
	}
	fmt.Fprintf(c.env.Out, "Saved token to %s\n", settings.TokenFile)
	return subcommands.ExitSuccess
}
