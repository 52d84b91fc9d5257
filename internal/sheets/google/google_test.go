package google

import (
	"context"
	"strings"
	"testing"
	"time"

	"saldo/internal/core"
	ports "saldo/internal/sheets"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "Activity")
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	clearOAuthEnv(t)

	_, err := New(context.Background(), "sheet-id", "Activity")
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing Google credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", t.TempDir()+"/missing.json")
	clearOAuthEnv(t)

	_, err := New(context.Background(), "sheet-id", "Activity")
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestNewClient_DefaultSheetName(t *testing.T) {
	c := newClient(nil, "id", "", 2025)
	if c.activitySheet != "2025 Activity" {
		t.Errorf("activitySheet = %q", c.activitySheet)
	}
}

func TestAppendActivity_Validation(t *testing.T) {
	c := newClient(nil, "id", "Activity", 2025)

	_, err := c.AppendActivity(context.Background(), ports.ActivityRow{Kind: core.Created, UserID: 1})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}

	valid := ports.ActivityRow{EventID: "e1", Kind: core.Created, UserID: 1}
	_, err = c.AppendActivity(context.Background(), valid)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected uninitialized service error, got %v", err)
	}
}

func TestHasEvent_UsesFreshCache(t *testing.T) {
	c := newClient(nil, "id", "Activity", 2025)
	c.mu.Lock()
	c.knownEvents = map[string]struct{}{"e1": {}}
	c.cacheExpiresAt = time.Now().Add(time.Minute)
	c.mu.Unlock()

	ok, err := c.HasEvent(context.Background(), "e1")
	if err != nil || !ok {
		t.Fatalf("expected cached hit, ok=%v err=%v", ok, err)
	}
	ok, err = c.HasEvent(context.Background(), "e2")
	if err != nil || ok {
		t.Fatalf("expected cached miss, ok=%v err=%v", ok, err)
	}
}

func TestHasEvent_ExpiredCacheReadsSheet(t *testing.T) {
	c := newClient(nil, "id", "Activity", 2025)
	c.mu.Lock()
	c.knownEvents = map[string]struct{}{"e1": {}}
	c.cacheExpiresAt = time.Now().Add(-time.Second)
	c.mu.Unlock()

	// With no service the refresh fails instead of answering from stale data.
	if _, err := c.HasEvent(context.Background(), "e1"); err == nil {
		t.Fatal("expected error when the cache is stale and no service is configured")
	}
}

func TestInvalidateEventCache(t *testing.T) {
	c := newClient(nil, "id", "Activity", 2025)
	c.mu.Lock()
	c.knownEvents = map[string]struct{}{}
	c.cacheExpiresAt = time.Now().Add(time.Minute)
	c.mu.Unlock()

	c.rememberEvent("e9")
	c.mu.Lock()
	_, remembered := c.knownEvents["e9"]
	c.mu.Unlock()
	if !remembered {
		t.Fatal("appended event should be remembered while the cache is loaded")
	}

	c.InvalidateEventCache()
	c.mu.Lock()
	valid := c.knownEvents != nil && time.Now().Before(c.cacheExpiresAt)
	c.mu.Unlock()
	if valid {
		t.Error("cache should be expired after invalidation")
	}
}

func TestEnsureHeader_Uninitialized(t *testing.T) {
	c := newClient(nil, "id", "Activity", 2025)
	if err := c.EnsureHeader(context.Background()); err == nil {
		t.Fatal("expected error without service")
	}
}
