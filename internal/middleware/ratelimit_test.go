package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shelfapi/shelf/internal/auth"
	"github.com/shelfapi/shelf/internal/cache"
	"github.com/shelfapi/shelf/internal/model"
)

type fakeLimiter struct {
	result *cache.RateLimitResult
	err    error
	userID int64
	ip     string
}

func (f *fakeLimiter) CheckUserRateLimit(_ context.Context, userID int64, _, _ int) (*cache.RateLimitResult, error) {
	f.userID = userID
	return f.result, f.err
}

func (f *fakeLimiter) CheckIPRateLimit(_ context.Context, ip string, _, _ int) (*cache.RateLimitResult, error) {
	f.ip = ip
	return f.result, f.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func authenticated(r *http.Request, userID int64) *http.Request {
	return r.WithContext(auth.ContextWithIdentity(r.Context(), &model.Identity{UserID: userID, TokenID: "t"}))
}

func TestRateLimitAPI(t *testing.T) {
	resetAt := time.Unix(1700000000, 0)

	tests := []struct {
		name        string
		enabled     bool
		result      *cache.RateLimitResult
		err         error
		wantStatus  int
		wantLimited bool
	}{
		{"disabled", false, nil, nil, http.StatusOK, false},
		{"allowed", true, &cache.RateLimitResult{Allowed: true, Remaining: 9, ResetAt: resetAt}, nil, http.StatusOK, false},
		{"exceeded", true, &cache.RateLimitResult{Allowed: false, ResetAt: resetAt, RetryAfter: 3 * time.Second}, nil, http.StatusTooManyRequests, true},
		{"redis down fails open", true, nil, errors.New("dial tcp: refused"), http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := &fakeLimiter{result: tt.result, err: tt.err}
			handler := RateLimitAPI(RateLimitConfig{
				Logger:     slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
				Limiter:    limiter,
				APIEnabled: tt.enabled,
				APIRPM:     60,
				APIBurst:   10,
			})(okHandler())

			req := authenticated(httptest.NewRequest(http.MethodGet, "/api/products", nil), 42)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.enabled && limiter.userID != 42 {
				t.Errorf("limiter keyed on user %d, want 42", limiter.userID)
			}
			if tt.wantLimited {
				if got := rec.Header().Get("Retry-After"); got != "3" {
					t.Errorf("Retry-After = %q, want 3", got)
				}
				if !strings.Contains(rec.Body.String(), `"code":"RATE_LIMITED"`) {
					t.Errorf("unexpected body: %s", rec.Body.String())
				}
			}
			if tt.result != nil && rec.Header().Get("X-RateLimit-Limit") != "60" {
				t.Errorf("X-RateLimit-Limit = %q, want 60", rec.Header().Get("X-RateLimit-Limit"))
			}
		})
	}
}

func TestRateLimitAPI_NoIdentityPassesThrough(t *testing.T) {
	limiter := &fakeLimiter{result: &cache.RateLimitResult{Allowed: false}}
	handler := RateLimitAPI(RateLimitConfig{
		Logger:     slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
		Limiter:    limiter,
		APIEnabled: true,
		APIRPM:     60,
	})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRateLimitIP(t *testing.T) {
	limiter := &fakeLimiter{result: &cache.RateLimitResult{Allowed: false, RetryAfter: 500 * time.Millisecond}}
	handler := RateLimitIP(RateLimitConfig{
		Logger:      slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
		Limiter:     limiter,
		AuthEnabled: true,
		AuthRPS:     1,
		AuthBurst:   5,
	})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if limiter.ip != "203.0.113.9" {
		t.Errorf("limiter keyed on %q, want client IP", limiter.ip)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want sub-second waits rounded up to 1", got)
	}
}

func TestRateLimitHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	setRateLimitHeaders(rec, 60, 45, time.Unix(1700000000, 0))

	if rec.Header().Get("X-RateLimit-Limit") != "60" {
		t.Errorf("Expected X-RateLimit-Limit=60, got %s", rec.Header().Get("X-RateLimit-Limit"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "45" {
		t.Errorf("Expected X-RateLimit-Remaining=45, got %s", rec.Header().Get("X-RateLimit-Remaining"))
	}
	if rec.Header().Get("X-RateLimit-Reset") != "1700000000" {
		t.Errorf("Expected X-RateLimit-Reset=1700000000, got %s", rec.Header().Get("X-RateLimit-Reset"))
	}
}
