package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/alchemorsel/recipegen/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig sizes the per-client token buckets
type RateLimitConfig struct {
	RequestsPerMin  int
	BurstSize       int
	CleanupInterval time.Duration
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client address
type RateLimiter struct {
	cfg     RateLimitConfig
	onLimit func()
	logger  *zap.Logger

	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

// NewRateLimiter creates a limiter. onLimit, when set, is called for every
// rejected request.
func NewRateLimiter(cfg RateLimitConfig, onLimit func(), logger *zap.Logger) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	return &RateLimiter{
		cfg:     cfg,
		onLimit: onLimit,
		logger:  logger.Named("rate-limit"),
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Run evicts idle clients until ctx is cancelled
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict()
		}
	}
}

// Allow reports whether key may make a request now
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		c = &client{
			limiter: rate.NewLimiter(rate.Limit(float64(l.cfg.RequestsPerMin)/60), l.cfg.BurstSize),
		}
		l.clients[key] = c
	}
	c.lastSeen = l.now()
	return c.limiter.AllowN(c.lastSeen, 1)
}

// Middleware rejects requests over the limit with 429
func (l *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int((time.Minute / time.Duration(max(l.cfg.RequestsPerMin, 1))).Seconds()) + 1)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if l.Allow(key) {
				next.ServeHTTP(w, r)
				return
			}

			l.logger.Warn("Rate limit exceeded",
				zap.String("client", key),
				zap.String("path", r.URL.Path),
			)
			if l.onLimit != nil {
				l.onLimit()
			}

			appErr := errors.NewTooManyRequestsError()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter)
			w.WriteHeader(appErr.StatusCode())
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": appErr.Message,
				"code":  string(appErr.Code),
			})
		})
	}
}

func (l *RateLimiter) evict() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.CleanupInterval)
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// clientKey identifies the caller. RealIP has already rewritten
// RemoteAddr when a proxy header was present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
