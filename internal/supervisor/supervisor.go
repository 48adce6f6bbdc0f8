// Package supervisor restarts a failing run cycle with exponential backoff.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/andresuchdata/dropgate/internal/config"
	"github.com/andresuchdata/dropgate/pkg/logger"
)

// Config bounds the restarts. MaxRestarts of 0 means no limit.
type Config struct {
	MaxRestarts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// Run calls fn until it returns nil or ctx is done. Any other error restarts
// fn after a growing pause, except configuration errors, which are returned
// at once, as is the last error once the restarts are used up.
func Run(ctx context.Context, cfg Config, name string, fn func(ctx context.Context) error) error {
	backoff := retry.NewExponential(max(cfg.Backoff, time.Millisecond))
	if cfg.MaxBackoff > 0 {
		backoff = retry.WithCappedDuration(cfg.MaxBackoff, backoff)
	}
	if cfg.MaxRestarts > 0 {
		backoff = retry.WithMaxRetries(uint64(cfg.MaxRestarts), backoff)
	}

	failures := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if config.IsConfigError(err) {
			return err
		}

		failures++
		logger.Log.Error().
			Err(err).
			Str("cycle", name).
			Int("failures", failures).
			Int("max_restarts", cfg.MaxRestarts).
			Msg("Cycle failed, restarting")
		return retry.RetryableError(err)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return nil
	case config.IsConfigError(err):
		return err
	default:
		return fmt.Errorf("%s: giving up after %d failure(s): %w", name, failures, err)
	}
}
