package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(5, 5)
	defer l.Close()

	for i := range 5 {
		res := l.Allow("k")
		if !res.Allowed {
			t.Errorf("request %d refused", i+1)
		}
		if res.Limit != 5 {
			t.Errorf("Limit = %d, want 5", res.Limit)
		}
	}
	res := l.Allow("k")
	if res.Allowed {
		t.Error("6th request allowed")
	}
	if res.RetryAfter < time.Second {
		t.Errorf("RetryAfter = %v, want >= 1s", res.RetryAfter)
	}
	if !l.Allow("other").Allowed {
		t.Error("separate key shares the bucket")
	}
}

func TestLimiter_drop(t *testing.T) {
	l := NewLimiter(60, 1)
	defer l.Close()
	l.Allow("k")
	l.drop(time.Now().Add(2 * idleAfter))
	l.mu.Lock()
	n := len(l.buckets)
	l.mu.Unlock()
	if n != 0 {
		t.Errorf("%d buckets left", n)
	}
}

func TestConfig_Match(t *testing.T) {
	c := NewConfig(100, 10)
	defer c.Close()
	tests := []struct {
		method, path string
		want         *Tier
	}{
		{http.MethodGet, "/api/health", nil},
		{http.MethodGet, "/api/sheets/todo/records", c.Read},
		{http.MethodPost, "/api/sheets/todo/records/query", c.Read},
		{http.MethodPost, "/api/sheets/todo/records/pick", c.Read},
		{http.MethodPost, "/api/sheets/todo/records", c.Write},
		{http.MethodPatch, "/api/sheets/todo/records", c.Write},
		{http.MethodDelete, "/api/sheets/todo/records", c.Write},
		{http.MethodOptions, "/api/sheets", nil},
	}
	for _, tt := range tests {
		if got := c.Match(tt.method, tt.path); got != tt.want {
			t.Errorf("Match(%s %s) = %v, want %v", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestConfig_disabled(t *testing.T) {
	c := NewConfig(0, -1)
	defer c.Close()
	if c.Read != nil || c.Write != nil {
		t.Fatal("tiers enabled")
	}
	if c.Match(http.MethodPost, "/api/sheets") != nil {
		t.Error("disabled tier matched")
	}
}

func TestMiddleware(t *testing.T) {
	c := NewConfig(60, 2)
	defer c.Close()
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	var codes []int
	for range 5 {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/sheets/todo/records", http.NoBody)
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
		if w.Header().Get("X-RateLimit-Limit") != "2" {
			t.Errorf("X-RateLimit-Limit = %q", w.Header().Get("X-RateLimit-Limit"))
		}
	}
	if codes[0] != http.StatusNoContent || codes[4] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}
