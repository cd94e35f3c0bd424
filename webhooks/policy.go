package webhooks

import "time"

// RetryPolicy bounds the attempt loop: at most MaxAttempts deliveries,
// with delay Base*2^(attempt-1) after the attempt numbered attempt.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Base:        2 * time.Second,
		Max:         5 * time.Minute,
	}
}

// NextDelay returns the wait before the attempt following attempt number
// attempt. The first retry waits Base, the second 2*Base, doubling after
// each failure.
func (p RetryPolicy) NextDelay(attempt int) time.Duration {
	base := p.Base
	if base <= 0 {
		base = 2 * time.Second
	}
	maximum := p.Max
	if maximum <= 0 {
		maximum = 5 * time.Minute
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maximum {
			return maximum
		}
	}
	if delay > maximum {
		return maximum
	}
	return delay
}

// Exhausted reports whether attempts used up the budget.
func (p RetryPolicy) Exhausted(attempts int) bool {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return attempts >= maxAttempts
}
