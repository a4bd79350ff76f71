package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitHeadersMatchConfiguredBurst(t *testing.T) {
	rl := NewAuthRateLimiter()
	defer rl.Close()

	handler := rl.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "203.0.113.1:54321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, strconv.Itoa(5), rec.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimitHeadersReflectBurstIndependently(t *testing.T) {
	auth := NewAuthRateLimiter()
	defer auth.Close()
	api := NewAPIRateLimiter()
	defer api.Close()

	call := func(rl *RateLimiter) string {
		handler := rl.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/api/games", nil)
		req.RemoteAddr = "203.0.113.2:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Header().Get("X-RateLimit-Limit")
	}

	assert.Equal(t, "5", call(auth))
	assert.Equal(t, "20", call(api))
}

func TestRateLimitExceededReportsZeroRemaining(t *testing.T) {
	rl := NewRateLimiter(1.0, 1)
	defer rl.Close()

	handler := rl.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/games", nil)
	req.RemoteAddr = "203.0.113.3:1234"

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
}
