package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(t, 2)

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("1.1.1.1"); !ok {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	ok, retry := rl.Allow("1.1.1.1")
	if ok {
		t.Fatal("third request should be limited")
	}
	if retry != time.Minute {
		t.Errorf("retry = %v, want 1m", retry)
	}
	if ok, _ := rl.Allow("2.2.2.2"); !ok {
		t.Error("other clients are independent")
	}

	*now = now.Add(61 * time.Second)
	if ok, _ := rl.Allow("1.1.1.1"); !ok {
		t.Error("window should reset after a minute")
	}
	if rl.Rejected() != 1 {
		t.Errorf("Rejected = %d, want 1", rl.Rejected())
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 5)
	rl.Allow("1.1.1.1")
	*now = now.Add(11 * time.Minute)
	rl.Allow("2.2.2.2")
	rl.cleanupStaleEntries()
	if got := rl.ActiveClients(); got != 1 {
		t.Errorf("ActiveClients = %d, want 1", got)
	}
}

func TestLimiter_MiddlewareOnlyLimitsMutations(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodDelete, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/expenses", nil))
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.method, rec.Code, tt.want)
		}
		if tt.want == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
		}
	}
}
