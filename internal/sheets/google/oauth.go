package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	defaultTokenFile    = "token.json"
	defaultRedirectPort = "8085"
	callbackPath        = "/callback"
)

// OAuthSettings locate the installed-app client and the token saved for it.
type OAuthSettings struct {
	ClientJSON   []byte
	TokenFile    string
	RedirectPort string
}

// OAuthSettingsFromEnv reads GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE,
// GOOGLE_OAUTH_TOKEN_FILE and OAUTH_REDIRECT_PORT. ok is false when no client
// is configured.
func OAuthSettingsFromEnv() (s OAuthSettings, ok bool, err error) {
	s = OAuthSettings{
		TokenFile:    envOr("GOOGLE_OAUTH_TOKEN_FILE", defaultTokenFile),
		RedirectPort: envOr("OAUTH_REDIRECT_PORT", defaultRedirectPort),
	}
	clientJSON := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"))
	clientFile := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"))
	switch {
	case clientJSON != "":
		s.ClientJSON = []byte(clientJSON)
	case clientFile != "":
		data, err := os.ReadFile(clientFile)
		if err != nil {
			return s, false, fmt.Errorf("read oauth client file: %w", err)
		}
		s.ClientJSON = data
	default:
		return s, false, nil
	}
	return s, true, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Config builds the OAuth2 config for the Sheets scope.
func (s OAuthSettings) Config() (*oauth2.Config, error) {
	cfg, err := goauth.ConfigFromJSON(s.ClientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	cfg.RedirectURL = "http://localhost:" + s.RedirectPort + callbackPath
	return cfg, nil
}

// tokenSource returns a refreshing source for the saved token, or
// os.ErrNotExist when nobody has authorized yet.
func (s OAuthSettings) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(s.TokenFile)
	if err != nil {
		return nil, err
	}
	return cfg.TokenSource(ctx, tok), nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	return &tok, nil
}

// SaveToken writes tok readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

// Authorize runs the installed-app flow: it prints the consent URL to out,
// waits for Google to redirect back to the local callback and exchanges the
// code for a token. The redirect URI must be registered on the OAuth client.
func Authorize(ctx context.Context, cfg *oauth2.Config, port string, out io.Writer) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "localhost:"+port)
	if err != nil {
		return nil, fmt.Errorf("listen for callback: %w", err)
	}

	state := uuid.NewString()
	codes := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.Handle(callbackPath, callbackHandler(state, codes))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(out, "Open this URL to authorize:\n%s\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case res := <-codes:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := cfg.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type callbackResult struct {
	code string
	err  error
}

// callbackHandler delivers the first redirect to results.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("code") == "":
			res.err = errors.New("callback without code")
			http.Error(w, "missing code", http.StatusBadRequest)
		default:
			res.code = q.Get("code")
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
		}
		select {
		case results <- res:
		default:
		}
	})
}
