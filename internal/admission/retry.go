package admission

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy is a fixed number of attempts separated by a constant pause.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy is three attempts, three seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 3 * time.Second}
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// do runs fn until it succeeds or the attempts are used up. Every failure is
// retried; the pause between attempts is interrupted by ctx. It returns the
// number of attempts made and the last error.
func (p RetryPolicy) do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	backoff := retry.WithMaxRetries(uint64(p.attempts()-1), retry.NewConstant(max(p.Backoff, time.Nanosecond)))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := fn(ctx, attempt); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	return attempt, err
}
