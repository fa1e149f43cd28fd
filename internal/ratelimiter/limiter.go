package ratelimiter

import (
	"golang.org/x/time/rate"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// SubmitLimiter is a token bucket over song submissions — the software coin
// slot. The GUI fires a submission per button press, and a stuck or abused
// button must not flood the durable queue.
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type SubmitLimiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing ratePerSec submissions per second.
// ratePerSec <= 0 disables limiting.
func New(ratePerSec int) *SubmitLimiter {
	if ratePerSec <= 0 {
		return &SubmitLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &SubmitLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)}
}

// Allow consumes one token if available. Submissions never wait in line for
// a token: a requester over the limit gets domain.ErrRateLimited immediately
// and can try again.
func (l *SubmitLimiter) Allow() error {
	if !l.limiter.Allow() {
		return domain.ErrRateLimited
	}
	return nil
}
