// SPDX-License-Identifier: MPL-2.0

package core

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultRetryAttempts = 6
	DefaultRetryDelay    = 2 * time.Second
)

// RetryPolicy bounds how often a publish stage is attempted. Multiplier scales the delay after
// each failed attempt; 0 and 1 both mean a fixed delay.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Multiplier  float64
	// Sleep waits between attempts. It defaults to a timer that returns early when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultRetryAttempts, Delay: DefaultRetryDelay, Multiplier: 1}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op until it succeeds, returns a permanent error, or the attempts are used up.
// It returns the number of attempts made and the last error.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	delay := p.Delay

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return attempt, perm.err
		}
		if attempt == maxAttempts {
			return attempt, err
		}
		if serr := sleep(ctx, delay); serr != nil {
			return attempt, errors.Join(err, serr)
		}
		if p.Multiplier > 1 {
			delay = time.Duration(float64(delay) * p.Multiplier)
		}
	}
	return maxAttempts, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
