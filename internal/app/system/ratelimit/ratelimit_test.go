package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(limit int, d time.Duration) (*Limiter, *clock) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(limit, d)
	l.now = c.now
	return l, c
}

func TestLimiter_AllowWithinWindow(t *testing.T) {
	l, c := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d blocked", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("4th attempt allowed")
	}
	if got := l.Remaining("k"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if !l.Allow("other") {
		t.Error("keys should be counted separately")
	}

	c.t = c.t.Add(time.Minute + time.Second)
	if !l.Allow("k") {
		t.Error("attempt after the window expired was blocked")
	}
	if got := l.Remaining("k"); got != 2 {
		t.Errorf("Remaining = %d, want 2", got)
	}
}

func TestLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("expected block")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("Reset did not clear the count")
	}
}

func TestLimiter_PrunesExpired(t *testing.T) {
	l, c := newTestLimiter(1, time.Second)
	l.Allow("old")
	c.t = c.t.Add(2 * time.Second)
	for i := 0; i < pruneEvery; i++ {
		l.Allow("new")
	}
	l.mu.Lock()
	_, kept := l.windows["old"]
	l.mu.Unlock()
	if kept {
		t.Error("expired window survived a prune")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:5555", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.2:5555", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.1:1234", "192.0.2.1"},
		{"remote addr without port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/login", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_PerUsername(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	r := httptest.NewRequest("POST", "/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Bob"); !ok {
			t.Fatalf("attempt %d blocked", i+1)
		}
	}
	if ok, msg := ll.Check(r, " bob "); ok || msg == "" {
		t.Errorf("third attempt for the same account: ok=%v msg=%q", ok, msg)
	}
	if ok, _ := ll.Check(r, "alice"); !ok {
		t.Error("another account was blocked")
	}

	ll.ResetUser("BOB")
	if ok, _ := ll.Check(r, "bob"); !ok {
		t.Error("ResetUser did not clear the account count")
	}
}

func TestLoginLimiter_PerIP(t *testing.T) {
	ll := NewLoginLimiterWithConfig(1, time.Minute, 100, time.Minute)
	r := httptest.NewRequest("POST", "/login", nil)

	if ok, _ := ll.Check(r, "a"); !ok {
		t.Fatal("first attempt blocked")
	}
	if ok, _ := ll.Check(r, "b"); ok {
		t.Error("second attempt from the same IP allowed")
	}
}
