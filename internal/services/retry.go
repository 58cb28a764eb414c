package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"sirlizard/language-for-you/internal/logging"
)

// RetryPolicy retries provider calls with exponential backoff.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Logger       logging.Logger
}

// permanentError marks a failure retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent stops a RetryPolicy from retrying err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn until it succeeds, returns a permanent error, the context ends,
// or MaxAttempts calls have failed. The last error is wrapped in ErrProvider.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(delay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) || ctx.Err() != nil {
			return err
		}

		if p.Logger != nil && attempt < attempts {
			p.Logger.Warn(ctx, "provider call failed, retrying",
				"op", op, "attempt", attempt, "error", err)
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		err = perm.err
	}
	return fmt.Errorf("%w: %s failed after %d attempt(s): %v", ErrProvider, op, attempt, err)
}
