// Package retry runs an operation repeatedly with a backoff that depends on whether
// the failure was a rate-limit signal
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy configures Do.
//
// A rate-limited failure waits Delay, then twice that on the next rate-limited
// failure, and so on up to MaxDelay. Any other failure waits InitialDelay
type Policy struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// InitialDelay is the wait before the first retry
	InitialDelay time.Duration
	// MaxDelay caps the exponential wait, zero means uncapped
	MaxDelay time.Duration
	// OnRetry, when set, is called before each wait
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultPolicy allows five retries starting from a five second delay
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   5,
		InitialDelay: 5 * time.Second,
	}
}

// RateLimiter is implemented by errors that can report a rate-limit condition
type RateLimiter interface {
	RateLimited() bool
}

// IsRateLimited reports whether any error in err's chain signals rate limiting
func IsRateLimited(err error) bool {
	var rl RateLimiter

	return errors.As(err, &rl) && rl.RateLimited()
}

// PermanentError marks a failure that another attempt cannot fix
type PermanentError struct {
	Err error
}

// Error returns the wrapped error's message
func (e *PermanentError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error
func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so Do returns it immediately without retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &PermanentError{Err: err}
}

// Do calls fn until it succeeds or the policy is exhausted. It returns the value and
// error of the last attempt, so callers can inspect a final failed result. A done
// context stops the retries and returns its error
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	backoff := p.InitialDelay

	for attempt := 1; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			return val, permanent.Err
		}

		if attempt > p.MaxRetries {
			return val, err
		}

		wait := p.InitialDelay

		if IsRateLimited(err) {
			wait = backoff
			backoff *= 2

			if p.MaxDelay > 0 && backoff > p.MaxDelay {
				backoff = p.MaxDelay
			}
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}

		if err := sleep(ctx, wait); err != nil {
			return val, err
		}
	}
}

// sleep suspends for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
