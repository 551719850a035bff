// Package clock provides the sleeping primitives used for rate-limit
// cooldowns, settle delays and bounded readiness polls.
package clock

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptsExhausted is returned by Poll when the condition never held.
var ErrAttemptsExhausted = errors.New("poll attempts exhausted")

type Sleeper interface {
	Sleep(ctx context.Context, delay time.Duration) error
}

type realSleeper struct{}

func Real() Sleeper {
	return realSleeper{}
}

func (realSleeper) Sleep(ctx context.Context, delay time.Duration) error {
	return sleepWithContext(ctx, delay)
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy bounds a readiness poll: at most Attempts checks with a fixed
// Interval between them. There is no backoff.
type Policy struct {
	Attempts int
	Interval time.Duration
}

// Poll runs check until it reports done, an error occurs, or the attempts
// run out. The sleep happens only between attempts, never after the last.
// Errors returned by check end the poll early.
func Poll(ctx context.Context, sleeper Sleeper, policy Policy, check func(ctx context.Context, attempt int) (bool, error)) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		done, err := check(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if attempt < attempts-1 {
			if err := sleeper.Sleep(ctx, policy.Interval); err != nil {
				return err
			}
		}
	}
	return ErrAttemptsExhausted
}
