package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/adventjoy/calendar-server-go/internal/config"
)

const verifyCleanupPeriod = 5 * time.Minute

type verifyAttempt struct {
	count       int
	windowStart time.Time
}

// VerifyRateLimiter is the in-process fallback throttle for credential
// verification attempts, keyed by client IP. The Redis sliding-window
// limiter is the primary control; this one still holds when Redis is
// down and requests would otherwise be denied outright.
type VerifyRateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*verifyAttempt
	lastCleanup time.Time
}

func NewVerifyRateLimiter() *VerifyRateLimiter {
	return &VerifyRateLimiter{
		attempts:    make(map[string]*verifyAttempt),
		lastCleanup: time.Now(),
	}
}

func (l *VerifyRateLimiter) cleanup() {
	now := time.Now()
	if now.Sub(l.lastCleanup) < verifyCleanupPeriod {
		return
	}
	l.lastCleanup = now

	for ip, attempt := range l.attempts {
		if now.Sub(attempt.windowStart) > config.VerifyWindow {
			delete(l.attempts, ip)
		}
	}
}

func (l *VerifyRateLimiter) isAllowed(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanup()

	now := time.Now()
	attempt, exists := l.attempts[ip]

	if !exists {
		l.attempts[ip] = &verifyAttempt{
			count:       1,
			windowStart: now,
		}
		return true
	}

	if now.Sub(attempt.windowStart) > config.VerifyWindow {
		attempt.count = 1
		attempt.windowStart = now
		return true
	}

	if attempt.count >= config.VerifyAttemptsPerWindow {
		return false
	}

	attempt.count++
	return true
}

func (l *VerifyRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			ip = forwarded
		}

		if !l.isAllowed(ip) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many attempts. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
