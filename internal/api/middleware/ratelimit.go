package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a token-bucket limiter keyed by client. Buckets refill
// continuously, so a client that backs off regains capacity gradually
// instead of in one burst at the interval boundary.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*tokenBucket

	capacity   float64       // bucket size
	refillRate float64       // tokens per second
	maxIdle    time.Duration // evict buckets untouched for this long
}

type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter allows `rate` requests per `interval` with bursts up to
// `burst`.
func NewRateLimiter(rate int, interval time.Duration, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients:    make(map[string]*tokenBucket),
		capacity:   float64(burst),
		refillRate: float64(rate) / interval.Seconds(),
		maxIdle:    5 * time.Minute,
	}
	go rl.evictIdle()
	return rl
}

// Allow reports whether a request from key fits in its bucket, consuming a
// token when it does.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.refill(key)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Remaining returns the whole tokens left for a key
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return int(rl.refill(key).tokens)
}

// refill credits a bucket for the time elapsed since its last use. Caller
// holds the mutex.
func (rl *RateLimiter) refill(key string) *tokenBucket {
	now := time.Now()
	b, ok := rl.clients[key]
	if !ok {
		b = &tokenBucket{tokens: rl.capacity, lastSeen: now}
		rl.clients[key] = b
		return b
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * rl.refillRate
	if b.tokens > rl.capacity {
		b.tokens = rl.capacity
	}
	b.lastSeen = now
	return b
}

func (rl *RateLimiter) evictIdle() {
	ticker := time.NewTicker(rl.maxIdle)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for key, b := range rl.clients {
			if time.Since(b.lastSeen) > rl.maxIdle {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit limits requests per client IP. Applied to the credential
// endpoints to slow down guessing.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(requestsPerMinute, time.Minute, requestsPerMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			if !limiter.Allow(key) {
				slog.Warn("rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"detail": "Too many requests, please try again later"}`))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop over the socket address
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	return r.RemoteAddr
}
