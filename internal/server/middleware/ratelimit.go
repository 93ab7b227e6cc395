package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 10 * time.Minute
	limiterIdleTimeout   = 30 * time.Minute
)

type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterSet hands out one token bucket per key. Entries idle for longer
// than limiterIdleTimeout are swept until ctx is done.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	rps      rate.Limit
	burst    int
}

func newLimiterSet(ctx context.Context, requestsPerSecond float64, burst int) *limiterSet {
	s := &limiterSet{
		limiters: make(map[string]*keyedLimiter),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
	}

	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(time.Now().Add(-limiterIdleTimeout))
			case <-ctx.Done():
				return
			}
		}
	}()

	return s
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	kl, ok := s.limiters[key]
	if !ok {
		kl = &keyedLimiter{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.limiters[key] = kl
	}
	kl.lastAccess = time.Now()
	s.mu.Unlock()

	return kl.limiter.Allow()
}

func (s *limiterSet) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, kl := range s.limiters {
		if kl.lastAccess.Before(cutoff) {
			delete(s.limiters, key)
		}
	}
}

func tooManyRequests(w http.ResponseWriter) {
	http.Error(w, `{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`, http.StatusTooManyRequests)
}

// RateLimitByIP applies per-IP rate limiting for unauthenticated endpoints
// (e.g. auth routes). Uses chi's RealIP middleware value via r.RemoteAddr.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiters := newLimiterSet(ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.allow(r.RemoteAddr) {
				tooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies per-user rate limiting. Requests without an
// authenticated user fall back to the client IP.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiters := newLimiterSet(ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + r.RemoteAddr
			if userID, ok := UserIDFromContext(r.Context()); ok {
				key = "user:" + userID.String()
			}

			if !limiters.allow(key) {
				tooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
