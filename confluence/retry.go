package confluence

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryPolicy bounds how often an outbound request is retried after a
// transient failure.  The same policy applies to every request the API makes;
// authentication failures are never retried.
type RetryPolicy struct {
	// Attempts is the maximum number of *retries* after the initial request.
	Attempts int

	// Backoff is the initial backoff duration.
	Backoff time.Duration

	// MaxBackoff caps the exponential growth.
	MaxBackoff time.Duration
}

// DefaultRetryPolicy returns a policy with sensible defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   4,
		Backoff:    time.Second,
		MaxBackoff: 30 * time.Second,
	}
}

// wait sleeps before retry number attempt (1-based).  A server-supplied hint
// takes precedence over the computed backoff; otherwise we back off
// exponentially with 0.5-1.5x jitter.
func (p RetryPolicy) wait(ctx context.Context, attempt int, hint time.Duration) error {
	backoff := p.Backoff * time.Duration(1<<uint(attempt-1))
	if backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}

	delay := time.Duration(float64(backoff) * (0.5 + rand.Float64()))
	if hint > 0 {
		delay = hint
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// do runs fn with bounded retries.  Only transient errors are retried; any
// other error returns immediately.  Exhausting the retries returns the last
// transient error, still recognisable through errors.As.
func (p RetryPolicy) do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= p.Attempts; attempt++ {
		if attempt > 0 {
			if err := p.wait(ctx, attempt, retryHint(lastErr)); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("confluence: giving up after %d attempts: %w", p.Attempts+1, lastErr)
}
