package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gemeenteweb/server/internal/config"
	"golang.org/x/time/rate"
)

// RateLimit applies a per-client-IP token bucket over the whole API surface.
// Health and metrics endpoints are exempt. A PerMinute of 0 disables limiting.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.PerMinute <= 0 || r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			limiter := store.limiter(clientKey(r))
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	cfg      config.RateLimitConfig
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*limiterEntry),
		cfg:      cfg,
	}
}

func (s *limiterStore) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if entry, ok := s.limiters[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	// Opportunistic cleanup of stale entries to bound memory
	for k, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > 10*time.Minute {
			delete(s.limiters, k)
		}
	}

	burst := s.cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(float64(s.cfg.PerMinute)/60.0), burst)
	s.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
