package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RateLimiter tracks request timestamps per caller over a sliding window.
type RateLimiter struct {
	requests int
	window   time.Duration
	visitors map[string]*visitor
	mu       sync.RWMutex
}

type visitor struct {
	timestamps []time.Time
	mu         sync.Mutex
}

func NewRateLimiter(requests int, windowSeconds int) *RateLimiter {
	if requests <= 0 {
		requests = 100
	}
	if windowSeconds <= 0 {
		windowSeconds = 60
	}

	rl := &RateLimiter{
		requests: requests,
		window:   time.Duration(windowSeconds) * time.Second,
		visitors: make(map[string]*visitor),
	}
	go rl.evictIdle(time.Minute)

	return rl
}

// evictIdle drops visitors with no activity for two windows so the map does
// not grow with every survey respondent that ever connected.
func (rl *RateLimiter) evictIdle(interval time.Duration) {
	for range time.Tick(interval) {
		cutoff := time.Now().Add(-2 * rl.window)
		rl.mu.Lock()
		for key, v := range rl.visitors {
			v.mu.Lock()
			idle := len(v.timestamps) == 0 || v.timestamps[len(v.timestamps)-1].Before(cutoff)
			v.mu.Unlock()
			if idle {
				delete(rl.visitors, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow reports whether a request under key may proceed, along with the
// remaining budget and when the window resets.
func (rl *RateLimiter) Allow(key string) (bool, int, time.Time) {
	rl.mu.RLock()
	v, exists := rl.visitors[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if v, exists = rl.visitors[key]; !exists {
			v = &visitor{timestamps: make([]time.Time, 0, rl.requests)}
			rl.visitors[key] = v
		}
		rl.mu.Unlock()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	kept := v.timestamps[:0]
	for _, ts := range v.timestamps {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	v.timestamps = kept

	if len(v.timestamps) >= rl.requests {
		return false, 0, v.timestamps[0].Add(rl.window)
	}

	v.timestamps = append(v.timestamps, now)
	return true, rl.requests - len(v.timestamps), now.Add(rl.window)
}

func (rl *RateLimiter) serve(next http.Handler, key func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetTime := rl.Allow(key(r))

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(resetTime).Seconds())+1, 10))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimit limits by client IP. It guards the public surfaces, shared
// survey links included, where no user identity exists.
func RateLimit(requests int, windowSeconds int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(requests, windowSeconds)
	return func(next http.Handler) http.Handler {
		return limiter.serve(next, getClientIP)
	}
}

// RateLimitByUser limits by authenticated user, falling back to the client
// IP for anonymous requests.
func RateLimitByUser(requests int, windowSeconds int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(requests, windowSeconds)
	return func(next http.Handler) http.Handler {
		return limiter.serve(next, func(r *http.Request) string {
			if userID := GetUserID(r.Context()); userID != uuid.Nil {
				return "user:" + userID.String()
			}
			return getClientIP(r)
		})
	}
}

// getClientIP prefers proxy headers and strips any port from RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
