// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a per-key token bucket (typically keyed by client IP).
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idle    time.Duration // buckets unused this long are dropped
	stop    chan struct{}
	once    sync.Once

	// trustProxy keys requests by X-Forwarded-For / X-Real-IP. Only safe
	// behind a proxy that overwrites those headers.
	trustProxy bool
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing perMinute events per key per minute with
// bursts of up to burst. A perMinute of 0 or less disables limiting.
func New(perMinute float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		idle:    10 * time.Minute,
		stop:    make(chan struct{}),
	}
	if perMinute <= 0 {
		l.limit = rate.Inf
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether an event for key may happen now.
func (l *Limiter) Allow(key string) bool {
	if l.limit == rate.Inf {
		return true
	}
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()
	l.mu.Unlock()
	return b.lim.Allow()
}

// TrustProxyHeaders makes Middleware key requests by the forwarded client
// address instead of the connection's peer address. It returns l.
func (l *Limiter) TrustProxyHeaders(trust bool) *Limiter {
	l.trustProxy = trust
	return l
}

// Reset clears the bucket for a key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Stop ends the background cleanup.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// cleanupLoop periodically removes idle buckets to prevent memory leaks.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			cutoff := time.Now().Add(-l.idle)
			for key, b := range l.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Middleware rejects requests over the limit with 429. Requests are keyed
// by ClientIP when proxy headers are trusted and by RemoteIP otherwise.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := RemoteIP(r)
		if l.trustProxy {
			key = ClientIP(r)
		}
		if !l.Allow(key) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return RemoteIP(r)
}

// RemoteIP returns the host part of the connection's peer address,
// ignoring any forwarding headers.
func RemoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}
