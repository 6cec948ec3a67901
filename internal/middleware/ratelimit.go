package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lootbay/lootbay/internal/api"
)

// Credential endpoints guard access to wallets, so they get a much
// tighter budget than the rest of the API: 5 attempts per IP per
// 15 minutes across login, signup, refresh and the OAuth callbacks.
const (
	authAttemptLimit  = 5
	authAttemptWindow = 15 * time.Minute
)

// ipWindow holds one client's attempt timestamps inside the sliding
// window, oldest first.
type ipWindow struct {
	hits []time.Time
}

// trim drops timestamps older than cutoff, preserving order.
func (w *ipWindow) trim(cutoff time.Time) {
	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.hits = append(w.hits[:0], w.hits[i:]...)
	}
}

// authLimiter is a sliding-window counter keyed by client IP.
type authLimiter struct {
	mu      sync.Mutex
	clients map[string]*ipWindow
	limit   int
	window  time.Duration
}

func newAuthLimiter(limit int, window time.Duration) *authLimiter {
	l := &authLimiter{
		clients: make(map[string]*ipWindow),
		limit:   limit,
		window:  window,
	}
	go l.sweep()
	return l
}

// allow records an attempt and reports whether it is within budget.
// When the budget is spent it returns how long until the oldest
// attempt ages out of the window.
func (l *authLimiter) allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.clients[ip]
	if !ok {
		w = &ipWindow{}
		l.clients[ip] = w
	}
	w.trim(now.Add(-l.window))

	if len(w.hits) >= l.limit {
		return false, w.hits[0].Add(l.window).Sub(now)
	}
	w.hits = append(w.hits, now)
	return true, 0
}

// sweep drops IPs whose attempts have all aged out, so one-off
// visitors do not accumulate in the map.
func (l *authLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for ip, w := range l.clients {
			w.trim(cutoff)
			if len(w.hits) == 0 {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimitAuth wraps credential endpoints with the per-IP attempt
// budget. Over-budget requests get a JSON 429 with a Retry-After hint.
func RateLimitAuth() func(http.HandlerFunc) http.HandlerFunc {
	limiter := newAuthLimiter(authAttemptLimit, authAttemptWindow)

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			ok, retryAfter := limiter.allow(ip)
			if !ok {
				slog.Warn("auth rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
				)
				seconds := int(retryAfter.Seconds()) + 1
				w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
				api.Error(w, http.StatusTooManyRequests, "Too many attempts. Please try again later.")
				return
			}

			next(w, r)
		}
	}
}

// clientIP resolves the originating address, trusting the usual proxy
// headers before falling back to the socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
