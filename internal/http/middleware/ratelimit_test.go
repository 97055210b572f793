package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, rate float64, burst int) (*RateLimiter, *time.Time) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	rl := NewRateLimiter(ctx, rate, burst)
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiterBurstThenRefill(t *testing.T) {
	rl, now := newTestLimiter(t, 2, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("burst exhausted, expected reject")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatalf("other clients have their own bucket")
	}

	*now = now.Add(500 * time.Millisecond)
	if !rl.Allow("10.0.0.1") {
		t.Fatalf("expected one token after refill")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("expected reject after using refilled token")
	}
}

func TestRateLimiterSweepDropsIdleBuckets(t *testing.T) {
	rl, now := newTestLimiter(t, 1, 1)
	rl.Allow("a")
	*now = now.Add(time.Hour)
	rl.Allow("b")

	if n := rl.sweep(now.Add(-limiterIdleAfter)); n != 1 {
		t.Fatalf("expected 1 bucket swept, got %d", n)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, 1)
	handler := RateLimit(rl)(okHandler(nil))

	send := func(remote, realIP string) int {
		req := httptest.NewRequest(http.MethodPost, "/chat/message", nil)
		req.RemoteAddr = remote
		if realIP != "" {
			req.Header.Set("X-Real-Ip", realIP)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := send("192.0.2.1:5000", ""); got != http.StatusOK {
		t.Fatalf("expected 200, got %d", got)
	}
	if got := send("192.0.2.1:6000", ""); got != http.StatusTooManyRequests {
		t.Fatalf("same host on a new port should share a bucket, got %d", got)
	}
	if got := send("192.0.2.1:7000", "198.51.100.7"); got != http.StatusOK {
		t.Fatalf("X-Real-Ip should select its own bucket, got %d", got)
	}
}
