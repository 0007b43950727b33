package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter is a simple in-memory fixed-window limiter per visitor.
// A limit of zero or less lets every request through.
type RateLimiter struct {
	visitors    map[string]*visitor
	mu          sync.Mutex
	limit       int
	window      time.Duration
	now         func() time.Time
	lastCleanup time.Time
}

type visitor struct {
	windowStart time.Time
	count       int
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow records a request from key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) > rl.window {
		rl.cleanupLocked(now)
	}

	v, exists := rl.visitors[key]
	if !exists || now.Sub(v.windowStart) > rl.window {
		v = &visitor{windowStart: now}
		rl.visitors[key] = v
	}
	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanupLocked(now time.Time) {
	for key, v := range rl.visitors {
		if now.Sub(v.windowStart) > rl.window {
			delete(rl.visitors, key)
		}
	}
	rl.lastCleanup = now
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(VisitorIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter(rl.window))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "message": "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfter(window time.Duration) string {
	seconds := int(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
