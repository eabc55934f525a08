// Package ratelimit throttles expensive API endpoints per client IP.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultRequestsPerMinute = 60
	DefaultBurst             = 10
	DefaultIdleTTL           = 10 * time.Minute
)

// Config configures an IPLimiter.
type Config struct {
	RequestsPerMinute float64
	Burst             int
	IdleTTL           time.Duration
}

// DefaultConfig returns the limits applied to match and vision endpoints.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: DefaultRequestsPerMinute,
		Burst:             DefaultBurst,
		IdleTTL:           DefaultIdleTTL,
	}
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter keeps one token bucket per client IP.
type IPLimiter struct {
	cfg    Config
	clock  clockwork.Clock
	logger zerolog.Logger

	mu      sync.Mutex
	buckets map[string]*entry
}

// NewIPLimiter creates a new per-IP limiter. A nil clock uses the wall clock.
func NewIPLimiter(cfg Config, clock clockwork.Clock, logger zerolog.Logger) *IPLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	return &IPLimiter{
		cfg:     cfg,
		clock:   clock,
		logger:  logger.With().Str("component", "ratelimit").Logger(),
		buckets: make(map[string]*entry),
	}
}

// Allow reports whether a request from ip may proceed now.
func (l *IPLimiter) Allow(ip string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	e, ok := l.buckets[ip]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerMinute/60), l.cfg.Burst)}
		l.buckets[ip] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Cleanup drops buckets idle for longer than the configured TTL and
// returns how many were removed.
func (l *IPLimiter) Cleanup() int {
	cutoff := l.clock.Now().Add(-l.cfg.IdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for ip, e := range l.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked IPs.
func (l *IPLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Middleware rejects requests over the limit with 429.
func (l *IPLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !l.Allow(ip) {
				l.logger.Warn().
					Str("ip", ip).
					Str("path", c.Request().URL.Path).
					Msg("Rate limit exceeded")
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}
