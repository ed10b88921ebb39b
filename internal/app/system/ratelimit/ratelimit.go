// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter provides rate limiting using a sliding window algorithm.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max requests per window
	duration time.Duration // window duration
	cleanup  time.Duration // how often to clean old entries
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a new rate limiter.
// limit: maximum requests allowed per duration
// duration: the time window for counting requests
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		cleanup:  duration * 2,
	}
	go l.cleanupLoop()
	return l
}

// Allow checks if a request from the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]

	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{
			count:     1,
			expiresAt: now.Add(l.duration),
		}
		return true
	}

	if w.count >= l.limit {
		return false
	}

	w.count++
	return true
}

// Remaining returns how many requests are left for this key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]

	if !exists || now.After(w.expiresAt) {
		return l.limit
	}

	remaining := l.limit - w.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset clears the rate limit for a specific key.
// Used after a successful attempt so legitimate callers are not penalized.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// cleanupLoop periodically removes expired entries to prevent memory leaks.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// GuessLimiter throttles endpoints where a short secret can be guessed:
// the shared passcode on sign-in and the eight-character invite codes on
// join and resolve. It tracks both IP-based and identity-based windows so
// neither a single fast client nor a distributed probe of one account
// gets an open-ended number of tries.
type GuessLimiter struct {
	ipLimiter  *Limiter
	keyLimiter *Limiter
}

// NewGuessLimiter creates a limiter with the default windows:
// 10 attempts per IP per minute, 5 attempts per identity per 5 minutes.
func NewGuessLimiter() *GuessLimiter {
	return &GuessLimiter{
		ipLimiter:  New(10, time.Minute),
		keyLimiter: New(5, 5*time.Minute),
	}
}

// NewGuessLimiterWithConfig creates a limiter with custom windows.
func NewGuessLimiterWithConfig(ipLimit int, ipDuration time.Duration, keyLimit int, keyDuration time.Duration) *GuessLimiter {
	return &GuessLimiter{
		ipLimiter:  New(ipLimit, ipDuration),
		keyLimiter: New(keyLimit, keyDuration),
	}
}

// AllowKey checks the per-identity window for an attempt keyed by a
// user ID. An empty key is always allowed.
func (gl *GuessLimiter) AllowKey(key string) bool {
	if key == "" {
		return true
	}
	return gl.keyLimiter.Allow(strings.ToLower(strings.TrimSpace(key)))
}

// ResetKey clears the per-identity window after a successful attempt.
func (gl *GuessLimiter) ResetKey(key string) {
	if key != "" {
		gl.keyLimiter.Reset(strings.ToLower(strings.TrimSpace(key)))
	}
}

// LimitByIP is chi middleware that rejects requests over the per-IP
// window with 429 before the handler runs.
func (gl *GuessLimiter) LimitByIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !gl.ipLimiter.Allow(ClientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many attempts, wait before retrying"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
