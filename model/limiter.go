package model

import (
	"sync"
	"time"
)

// WindowLimiter enforces a fixed number of admissions per time window. The
// counter resets when the window elapses; exceeding the count before reset
// fails fast with a RateLimitError. There is no blocking wait.
type WindowLimiter struct {
	max    int
	window time.Duration

	mu       sync.Mutex
	count    int
	windowAt time.Time
	now      func() time.Time
}

// NewWindowLimiter creates a limiter admitting max requests per window.
// If max <= 0, admission is unlimited.
func NewWindowLimiter(max int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{max: max, window: window, windowAt: time.Now(), now: time.Now}
}

// Allow consumes one admission slot, returning a RateLimitError when the
// current window is exhausted.
func (l *WindowLimiter) Allow() error {
	if l.max <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.windowAt) > l.window {
		l.count = 0
		l.windowAt = now
	}

	if l.count >= l.max {
		return &RateLimitError{Provider: "local"}
	}
	l.count++
	return nil
}

// Remaining returns how many admissions are left in the current window, or
// -1 for an unlimited limiter.
func (l *WindowLimiter) Remaining() int {
	if l.max <= 0 {
		return -1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.now().Sub(l.windowAt) > l.window {
		return l.max
	}
	return l.max - l.count
}
