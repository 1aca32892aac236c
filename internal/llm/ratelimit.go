package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// newLimiter returns a token bucket refilled at rps with the given burst, or
// nil when rps <= 0.
func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// acquire waits for a token. A wait that cannot finish before the context
// deadline is reported as context.DeadlineExceeded without sleeping.
func acquire(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return nil
}
