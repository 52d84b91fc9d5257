package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute})
	rl.now = clock.now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestAllowWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("fourth request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other clients have their own window")
	}

	clock.t = clock.t.Add(30 * time.Second)
	if got := rl.RetryAfter("1.2.3.4"); got != 30*time.Second {
		t.Fatalf("RetryAfter = %v, want 30s", got)
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("still inside the window")
	}

	clock.t = clock.t.Add(30 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("new window should allow again")
	}
	if m := rl.GetMetrics(); m.Limited != 2 || m.ClientCount != 2 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestDefaults(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()
	if rl.requestsPerMinute != 120 || rl.cleanupInterval != 5*time.Minute {
		t.Fatalf("defaults not applied: %d %v", rl.requestsPerMinute, rl.cleanupInterval)
	}
	rl.Stop()
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 1)
	rl.Allow("a")
	clock.t = clock.t.Add(5 * time.Minute)
	rl.Allow("b")
	clock.t = clock.t.Add(6 * time.Minute)

	rl.cleanupStaleEntries()
	if got := rl.ActiveClients(); got != 1 {
		t.Fatalf("ActiveClients = %d, want 1", got)
	}
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	key := func(*http.Request) string { return "client" }
	onlyPost := func(r *http.Request) bool { return r.Method == http.MethodPost }

	var waited time.Duration
	h := rl.Middleware(key, onlyPost, func(w http.ResponseWriter, _ *http.Request, wait time.Duration) {
		waited = wait
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodPost, http.StatusTooManyRequests},
		{http.MethodGet, http.StatusNoContent},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tt.method, "/", nil))
		if rr.Code != tt.want {
			t.Fatalf("%s: status = %d, want %d", tt.method, rr.Code, tt.want)
		}
	}
	if waited != time.Minute {
		t.Fatalf("onLimit wait = %v, want 1m", waited)
	}
}
