package client

import (
	"math/rand"
	"time"
)

// RetryPolicy is the explicit backoff contract the client consumes. One
// policy object per client, not inlined per call site.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      func(time.Duration) time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy caps at five attempts with exponential backoff and
// full jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    16 * time.Second,
		Jitter:      fullJitter,
		Retryable:   IsRetryable,
	}
}

// Backoff returns the delay before the given 1-based attempt is retried.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay << uint(attempt-1)
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	if p.Jitter != nil {
		delay = p.Jitter(delay)
	}
	return delay
}

func fullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d))) + d/2
}
