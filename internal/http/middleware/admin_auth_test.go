package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func serveAdmin(t *testing.T, secret, authHeader string, next http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	AdminJWT(secret)(next).ServeHTTP(rec, req)
	return rec
}

func TestAdminJWTRejects(t *testing.T) {
	valid := signedAdminToken(t, "secret", AdminRole, time.Now().Add(5*time.Minute))

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"disabled without secret", "", "Bearer " + valid, http.StatusUnauthorized},
		{"missing header", "secret", "", http.StatusUnauthorized},
		{"not bearer", "secret", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "secret", "Bearer " + signedAdminToken(t, "wrong", AdminRole, time.Now().Add(time.Minute)), http.StatusUnauthorized},
		{"expired", "secret", "Bearer " + signedAdminToken(t, "secret", AdminRole, time.Now().Add(-time.Minute)), http.StatusUnauthorized},
		{"no expiry", "secret", "Bearer " + signedAdminToken(t, "secret", AdminRole, time.Time{}), http.StatusUnauthorized},
		{"wrong role", "secret", "Bearer " + signedAdminToken(t, "secret", "stylist", time.Now().Add(time.Minute)), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			rec := serveAdmin(t, tt.secret, tt.header, okHandler(&called))
			if called {
				t.Fatalf("handler should not be called")
			}
			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestAdminJWTValidToken(t *testing.T) {
	token := signedAdminToken(t, "secret", AdminRole, time.Now().Add(5*time.Minute))
	called := false
	rec := serveAdmin(t, "secret", "Bearer "+token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := AdminClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("expected admin claims in context")
		}
		if claims.Subject != "reception@geecurly" || claims.Location != "kiambu" {
			t.Fatalf("unexpected claims %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	}))

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestAdminJWTRejectsNoneAlgorithm(t *testing.T) {
	claims := AdminClaims{Role: AdminRole, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec := serveAdmin(t, "secret", "Bearer "+unsigned, okHandler(nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func signedAdminToken(t *testing.T, secret, role string, expires time.Time) string {
	t.Helper()
	claims := AdminClaims{
		Role:     role,
		Location: "kiambu",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "reception@geecurly",
		},
	}
	if !expires.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expires)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
