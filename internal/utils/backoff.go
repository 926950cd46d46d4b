package utils

import (
	"context"
	"time"
)

// Backoff doubles the delay on every consecutive failure, up to max.
type Backoff struct {
	base time.Duration
	max  time.Duration
}

func NewBackoff(base, max time.Duration) Backoff {
	if max < base {
		max = base
	}
	return Backoff{base: base, max: max}
}

// Delay is the wait after the given number of consecutive failures (0 = none).
func (b Backoff) Delay(failures int) time.Duration {
	if failures <= 0 || b.base <= 0 {
		return 0
	}
	d := b.base
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= b.max {
			return b.max
		}
	}
	return d
}

// Wait sleeps for Delay(failures) or until ctx is done.
func (b Backoff) Wait(ctx context.Context, failures int) error {
	d := b.Delay(failures)
	if d == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
