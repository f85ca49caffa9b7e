package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/fairway-collective/roundsync/internal/observability/attr"
)

func signTestToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "npub-tester",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestJWTAuthMiddleware(t *testing.T) {
	const secret = "test-secret"

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantCaller string
	}{
		{
			name:       "valid token",
			authHeader: "Bearer " + signTestToken(t, secret, time.Now().Add(time.Hour)),
			wantStatus: http.StatusOK,
			wantCaller: "npub-tester",
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a bearer token",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			authHeader: "Bearer not.a.jwt",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			authHeader: "Bearer " + signTestToken(t, secret, time.Now().Add(-time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			authHeader: "Bearer " + signTestToken(t, "other-secret", time.Now().Add(time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCaller string
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotCaller = CallerFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			handler := JWTAuthMiddleware(secret)(inner)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/rounds", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if gotCaller != tt.wantCaller {
				t.Errorf("expected caller %q, got %q", tt.wantCaller, gotCaller)
			}
		})
	}
}

func TestServer_AuthEnabledGatesAPIRoutes(t *testing.T) {
	cfg := newTestConfig()
	cfg.HTTP.AuthEnabled = true
	cfg.HTTP.JWTSecret = "test-secret"
	handler := newTestHandler(cfg, &FakeRoundService{}, &FakeCourseService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "test-secret", time.Now().Add(time.Hour)))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rr.Code)
	}

	// The health endpoint sits outside the authenticated subtree.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected healthz to stay open, got %d", rr.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 1)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(limiter)(inner)

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/rounds", nil)
		req.RemoteAddr = remoteAddr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("192.0.2.1:1234"); code != http.StatusOK {
		t.Errorf("expected first request to pass, got %d", code)
	}
	if code := send("192.0.2.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("expected second request limited, got %d", code)
	}
	// Another client has its own bucket.
	if code := send("192.0.2.2:1234"); code != http.StatusOK {
		t.Errorf("expected other IP to pass, got %d", code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("allowed origin echoed", func(t *testing.T) {
		handler := CORSMiddleware([]string{"https://app.example.com"})(inner)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("expected origin echoed, got %q", got)
		}
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		handler := CORSMiddleware([]string{"https://app.example.com"})(inner)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no CORS headers, got %q", got)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		handler := CORSMiddleware([]string{"https://app.example.com"})(inner)
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/courses", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected preflight 200, got %d", rr.Code)
		}
	})
}

func TestCorrelationIDMiddleware(t *testing.T) {
	t.Run("mints an id when the caller sends none", func(t *testing.T) {
		var seen string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = attr.CorrelationIDFromContext(r.Context())
		})
		handler := CorrelationIDMiddleware()(inner)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if seen == "" {
			t.Fatalf("expected a minted correlation id on the context")
		}
		if got := rr.Header().Get("X-Correlation-ID"); got != seen {
			t.Errorf("expected the minted id echoed on the response, got %q want %q", got, seen)
		}
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		var seen string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = attr.CorrelationIDFromContext(r.Context())
		})
		handler := CorrelationIDMiddleware()(inner)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
		req.Header.Set("X-Correlation-ID", "caller-supplied-id")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if seen != "caller-supplied-id" {
			t.Errorf("expected the caller's id kept, got %q", seen)
		}
		if got := rr.Header().Get("X-Correlation-ID"); got != "caller-supplied-id" {
			t.Errorf("expected the caller's id echoed, got %q", got)
		}
	})
}
