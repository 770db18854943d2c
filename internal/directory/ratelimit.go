package directory

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outgoing directory calls to a per-minute budget.
type RateLimiter struct {
	bucket *rate.Limiter
}

// NewRateLimiter allows perMinute requests per minute. Non-positive values disable throttling.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return &RateLimiter{bucket: rate.NewLimiter(rate.Inf, 0)}
	}

	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
	}
}

// Wait blocks until a request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.bucket.Wait(ctx)
}
