package model

import (
	"errors"
	"fmt"
)

// AuthError reports rejected credentials or forbidden access. It is fatal
// for the current request and never retried: retrying a bad key cannot
// succeed, and the caller needs to distinguish misconfiguration from
// transient trouble.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError reports admission-control rejection, either from the local
// window limiter or from an upstream 429. Buffered calls retry it with
// backoff; it surfaces only after the retry budget is exhausted.
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	if e.Err == nil {
		return "rate limit exceeded"
	}
	return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// APIError wraps any other upstream failure: malformed responses, network
// errors, 5xx conditions. Transport-level variants are retried; the rest
// propagate immediately.
type APIError struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: %v", e.Provider, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsRateLimit reports whether err is (or wraps) a RateLimitError.
func IsRateLimit(err error) bool {
	var re *RateLimitError
	return errors.As(err, &re)
}
