package chain

import (
	"context"
	"errors"
	"time"
)

const maxRetryDelay = 5 * time.Second

// retry runs an idempotent RPC read up to s.MaxRetries extra times. The delay
// starts at s.RetryBackoff and doubles, capped at maxRetryDelay. Context
// errors are never retried.
func retry(ctx context.Context, s Settings, fn func(context.Context) error) error {
	attempts := s.MaxRetries
	if attempts < 0 {
		attempts = 0
	}
	delay := s.RetryBackoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil || attempt >= attempts {
			return err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = min(delay*2, maxRetryDelay)
	}
}
