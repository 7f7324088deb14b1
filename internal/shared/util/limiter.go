package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket used to throttle bursts of work, such as a
// checkout touching hundreds of files while watch mode is running.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a limiter refilling r tokens per second with burst b.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Allow reports whether n tokens are available now, consuming them if so.
func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available. Requests larger than the burst
// are split so they never fail outright.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	burst := l.inner.Burst()
	for n > 0 {
		step := n
		if step > burst {
			step = burst
		}
		if err := l.inner.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}
