package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthLimiterBudget(t *testing.T) {
	l := &authLimiter{clients: make(map[string]*ipWindow), limit: 3, window: time.Minute}

	for i := 0; i < 3; i++ {
		ok, _ := l.allow("10.0.0.1")
		require.True(t, ok, "attempt %d should be within budget", i+1)
	}

	ok, retryAfter := l.allow("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))

	// Other clients keep their own budget.
	ok, _ = l.allow("10.0.0.2")
	assert.True(t, ok)
}

func TestAuthLimiterWindowSlides(t *testing.T) {
	l := &authLimiter{clients: make(map[string]*ipWindow), limit: 2, window: 50 * time.Millisecond}

	ok, _ := l.allow("10.0.0.1")
	require.True(t, ok)
	ok, _ = l.allow("10.0.0.1")
	require.True(t, ok)
	ok, _ = l.allow("10.0.0.1")
	require.False(t, ok)

	time.Sleep(60 * time.Millisecond)

	ok, _ = l.allow("10.0.0.1")
	assert.True(t, ok, "attempts should age out of the window")
}

func TestRateLimitAuthRejectsWithRetryAfter(t *testing.T) {
	wrap := RateLimitAuth()
	handler := wrap(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	var rec *httptest.ResponseRecorder
	for i := 0; i < authAttemptLimit+1; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.0.2.7:4455"
		rec = httptest.NewRecorder()
		handler(rec, req)
	}

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many attempts")
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "203.0.113.9", clientIP(req))

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "203.0.113.10")
	assert.Equal(t, "203.0.113.10", clientIP(req))

	req.Header.Del("X-Real-IP")
	assert.Equal(t, "127.0.0.1", clientIP(req))
}
