package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	ports "saldo/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Activity"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	activitySheet string

	// Event ids already present in the sheet, refreshed after cacheValidDuration.
	mu                 sync.Mutex
	knownEvents        map[string]struct{}
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

// Ensure interface conformance
var (
	_ ports.ActivityExporter = (*Client)(nil)
	_ ports.EventIndex       = (*Client)(nil)
)

// New creates a Sheets client for the given spreadsheet. The activity sheet
// name gets the current year as prefix ("2025 Activity") unless it already
// carries one. Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, spreadsheetID, sheetName, time.Now().Year()), nil
}

func newClient(svc *gsheet.Service, spreadsheetID, sheetName string, year int) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = defaultSheetName
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		activitySheet:      yearPrefixedName(sheetName, year),
		cacheValidDuration: 5 * time.Minute,
	}
}

// newSheetsService initializes a Sheets Service. A saved OAuth user token
// wins over Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	opts, err := clientOptions(ctx)
	if err != nil {
		return nil, err
	}
	service, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func clientOptions(ctx context.Context) ([]goption.ClientOption, error) {
	settings, ok, err := OAuthSettingsFromEnv()
	if err != nil {
		return nil, err
	}
	if ok {
		ts, err := settings.tokenSource(ctx)
		switch {
		case err == nil:
			slog.InfoContext(ctx, "Creating Google Sheets service with OAuth user token",
				"token_file", settings.TokenFile)
			return []goption.ClientOption{goption.WithTokenSource(ts)}, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
		slog.WarnContext(ctx, "OAuth client configured but no token saved, run saldoctl sheets-login",
			"token_file", settings.TokenFile)
	}

	credentialsJSON, err := loadCredentials()
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)
	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

func loadCredentials() ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing Google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS, or authorize with saldoctl sheets-login)")
	}
}

// AppendActivity appends one row after the last used row of the activity sheet.
func (c *Client) AppendActivity(ctx context.Context, row ports.ActivityRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:%s", c.activitySheet, lastColumn)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(row)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.activitySheet, err)
	}

	c.rememberEvent(row.EventID)

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// EnsureHeader writes the column titles when the activity sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:%s1", c.activitySheet, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	vr := &gsheet.ValueRange{Values: [][]any{headerValues()}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", c.activitySheet, err)
	}
	slog.InfoContext(ctx, "Activity sheet header written", "sheet", c.activitySheet)
	return nil
}

// HasEvent reports whether eventID already appears in the event id column.
func (c *Client) HasEvent(ctx context.Context, eventID string) (bool, error) {
	c.mu.Lock()
	if c.knownEvents != nil && time.Now().Before(c.cacheExpiresAt) {
		_, ok := c.knownEvents[eventID]
		c.mu.Unlock()
		return ok, nil
	}
	c.mu.Unlock()

	if c.svc == nil {
		return false, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s:%s", c.activitySheet, eventIDColumn, eventIDColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read %s: %w", rng, err)
	}

	known := eventIDs(resp.Values)
	c.mu.Lock()
	c.knownEvents = known
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()

	_, ok := known[eventID]
	return ok, nil
}

// InvalidateEventCache forces the next HasEvent to read the sheet again.
func (c *Client) InvalidateEventCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.knownEvents = nil
	c.cacheExpiresAt = time.Time{}
}

func (c *Client) rememberEvent(eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.knownEvents != nil {
		c.knownEvents[eventID] = struct{}{}
	}
}
