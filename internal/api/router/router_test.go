package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/geecurly-receptionist/internal/bookings"
	"github.com/wolfman30/geecurly-receptionist/internal/catalog"
	"github.com/wolfman30/geecurly-receptionist/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/geecurly-receptionist/internal/http/middleware"
	"github.com/wolfman30/geecurly-receptionist/internal/kvstore"
	"github.com/wolfman30/geecurly-receptionist/internal/observability/metrics"
	"github.com/wolfman30/geecurly-receptionist/internal/receptionist"
	"github.com/wolfman30/geecurly-receptionist/internal/transcript"
	"github.com/wolfman30/geecurly-receptionist/internal/webchat"
	"github.com/wolfman30/geecurly-receptionist/pkg/logging"
)

const adminSecret = "router-secret"

func newTestConfig(t *testing.T) *Config {
	t.Helper()

	logger := logging.New("error")
	bookingSvc := bookings.NewService(bookings.NewMemoryRepository(), nil, logger)
	flow := receptionist.NewFlow(catalog.NewInMemory(nil, nil, logger, catalog.WithBooked(bookingSvc)), bookingSvc, logger)
	transcripts := transcript.NewMemoryStore()

	reg := prometheus.NewRegistry()
	chatMetrics := metrics.NewChatMetrics(reg)
	mgr := receptionist.NewManager(flow, kvstore.NewMemory(), transcripts, receptionist.ManagerConfig{}, logger, chatMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &Config{
		Logger:             logger,
		WebChat:            webchat.NewHandler(mgr, transcripts, nil, logger),
		AdminBookings:      handlers.NewAdminBookingsHandler(bookingSvc, time.UTC, logger),
		AdminAuthSecret:    adminSecret,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"https://geecurly.example"},
		RateLimiter:        httpmiddleware.NewRateLimiter(ctx, 5, 2),
	}
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := New(newTestConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterHealthReportsFailingDependency(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.HealthChecks = map[string]HealthCheck{
		"redis":    func(context.Context) error { return nil },
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	}

	rr := httptest.NewRecorder()
	New(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "degraded" || resp["redis"] != "ok" || resp["postgres"] != "connection refused" {
		t.Fatalf("unexpected health body %v", resp)
	}
}

func TestRouterChatStart(t *testing.T) {
	router := New(newTestConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/chat/start", strings.NewReader(`{"location":"roysambu"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, rr.Code, rr.Body.String())
	}
	var resp webchat.TurnResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID == "" || resp.Step != receptionist.StepGreeting {
		t.Fatalf("unexpected start response %+v", resp)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Errorf("expected request id header")
	}
}

func TestRouterChatIsRateLimited(t *testing.T) {
	router := New(newTestConfig(t))

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/chat/start", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected burst of 2 then 429, got %v", codes)
	}
}

func TestRouterWidgetIsPublic(t *testing.T) {
	rr := httptest.NewRecorder()
	New(newTestConfig(t)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/chat/widget.js", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/chat/message", nil)
	req.Header.Set("Origin", "https://geecurly.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	New(newTestConfig(t)).ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://geecurly.example" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	cfg := newTestConfig(t)
	router := New(cfg)

	start := httptest.NewRequest(http.MethodPost, "/chat/start", nil)
	router.ServeHTTP(httptest.NewRecorder(), start)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "geecurly_") {
		t.Fatalf("expected chat metrics in exposition")
	}
}

func TestRouterAdminRequiresToken(t *testing.T) {
	router := New(newTestConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/bookings", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	claims := httpmiddleware.AdminClaims{
		Role: httpmiddleware.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(adminSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/bookings?date=2026-10-16", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRouterAdminNotMountedWithoutSecret(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.AdminAuthSecret = ""

	rr := httptest.NewRecorder()
	New(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/bookings", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without admin secret, got %d", rr.Code)
	}
}

func TestRouterBookingVisibleToAdmin(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.RateLimiter = nil
	router := New(cfg)

	send := func(path, body string) webchat.TurnResponse {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s %s: expected 200, got %d (%s)", path, body, rr.Code, rr.Body.String())
		}
		var resp webchat.TurnResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp
	}

	id := send("/chat/start", `{"location":"kiambu"}`).SessionID
	var last webchat.TurnResponse
	for _, text := range []string{
		"book",
		"Kiambu Road",
		"Hair Styling",
		"Grace Wanjiru",
		"First available",
		"My name is Jane Doe and my phone is 0712345678",
		"yes confirm",
	} {
		body, _ := json.Marshal(map[string]string{"session_id": id, "text": text})
		last = send("/chat/message", string(body))
	}
	if last.Step != receptionist.StepCompleted {
		t.Fatalf("expected completed booking, got step %s: %s", last.Step, last.Message.Text)
	}

	claims := httpmiddleware.AdminClaims{
		Role:             httpmiddleware.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(adminSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	var found int
	for d := 0; d < 8; d++ {
		date := time.Now().UTC().AddDate(0, 0, d).Format(time.DateOnly)
		req := httptest.NewRequest(http.MethodGet, "/admin/bookings?date="+date, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		var list handlers.BookingListResponse
		if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		for _, b := range list.Bookings {
			if b.CustomerName == "Jane Doe" && b.StylistID == "stf-grace" {
				found++
			}
		}
	}
	if found != 1 {
		t.Fatalf("expected the chat booking in the admin list once, found %d", found)
	}
}
