package api

import (
	"time"

	domainerrors "github.com/tazkiyahapp/tazkiyah-server/internal/errors"
	"github.com/tazkiyahapp/tazkiyah-server/internal/ratelimit"
)

// RateLimiter wraps KeyedRateLimiter for API use.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a new rate limiter.
// rate: number of requests allowed per interval
// interval: time period for rate (e.g., time.Minute)
// burst: maximum burst size
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	// The limiter works in requests per second.
	// For example: 20 per minute = 20/60 = 0.333 rps
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst)
}

// checkRateLimit consumes a token for the key and returns a 429 domain error
// when the limit is exceeded. Handlers call this before doing any work.
func (s *Server) checkRateLimit(limiter *RateLimiter, key, what string) error {
	if limiter.Allow(key) {
		return nil
	}

	s.logger.Warn("Rate limit exceeded", "key", key, "endpoint", what)
	return domainerrors.RateLimited("Too many requests. Please try again later.")
}

// extractIP picks the client IP from forwarding headers, preferring the
// first entry of X-Forwarded-For.
func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return xForwardedFor[:i]
			}
		}
		return xForwardedFor
	}
	return xRealIP
}
