package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/toxref/internal/service"
)

var (
	// ErrRateLimit marks a quota rejection from a remote API.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries is returned once every attempt has failed.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError tells WithRetry whether Err is worth another attempt.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// backoff tracks the delay between attempts.
type backoff struct {
	opts service.RetryOptions
	wait time.Duration
}

func newBackoff(opts service.RetryOptions) *backoff {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2
	}
	return &backoff{opts: opts, wait: opts.InitialDelay}
}

// delay returns how long to sleep after err and advances the schedule.
func (b *backoff) delay(err error) time.Duration {
	if errors.Is(err, ErrRateLimit) {
		b.wait = b.opts.MaxDelay
	}
	d := b.wait
	b.wait = min(time.Duration(float64(b.wait)*b.opts.Multiplier), b.opts.MaxDelay)
	return d
}

// stopsRetry reports errors that end the loop without another attempt.
func stopsRetry(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var re *RetryableError
	return errors.As(err, &re) && !re.Retryable
}

// WithRetry runs operation until it succeeds, fails permanently or runs out of
// attempts. A rate limit jumps straight to the maximum delay.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	b := newBackoff(opts)
	attempts := b.opts.MaxAttempts

	for attempt := 1; ; attempt++ {
		err := operation()
		switch {
		case err == nil:
			return nil
		case stopsRetry(err):
			return err
		case attempt >= attempts:
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempts, err)
		}

		wait := b.delay(err)
		slog.Warn("Retrying after failure",
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", wait,
			"error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrRateLimit), errors.Is(err, context.DeadlineExceeded):
		return true
	}
	var re *RetryableError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}
