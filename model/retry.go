package model

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy is an explicit, testable retry schedule: a bounded number of
// attempts with exponential backoff between them. Only errors the Retryable
// predicate accepts are retried; everything else propagates immediately.
type RetryPolicy struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration

	// sleep is swapped in tests to avoid real waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy mirrors the service defaults: three attempts, backoff
// between one and ten seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, MinDelay: time.Second, MaxDelay: 10 * time.Second}
}

// Backoff returns the delay before the given retry attempt (attempt 1 is the
// first retry). The schedule doubles from MinDelay and is capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.MinDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Retryable reports whether err is worth another attempt: rate limiting and
// transient transport failures qualify; auth failures and other API errors
// do not.
func Retryable(err error) bool {
	if IsRateLimit(err) {
		return true
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Transient
	}
	return false
}

// Do runs fn under the policy, sleeping the backoff schedule between
// retryable failures. The last error is returned once attempts are
// exhausted. Context cancellation aborts the wait and surfaces ctx.Err().
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !Retryable(err) || attempt == attempts {
			return err
		}
		if serr := sleep(ctx, p.Backoff(attempt)); serr != nil {
			return serr
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
