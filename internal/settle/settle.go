// SPDX-License-Identifier: MPL-2.0

package settle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	// DefaultTimeout bounds a wait when Options.Timeout is zero.
	DefaultTimeout = 60 * time.Second
	// DefaultInterval is the poll period when Options.Interval is zero.
	DefaultInterval = 500 * time.Millisecond
)

// ErrTimeout is wrapped by TimeoutError.
var ErrTimeout = errors.New("condition not met before timeout")

type (
	// Clock abstracts time for polling. testutil.FakeClock satisfies it.
	Clock interface {
		Now() time.Time
		After(d time.Duration) <-chan time.Time
	}

	// Condition reports whether the awaited state holds. A non-nil error
	// aborts the wait.
	Condition func() (bool, error)

	// Options configures Until.
	Options struct {
		// What names the awaited condition in errors and logs.
		What     string
		Timeout  time.Duration
		Interval time.Duration
		Clock    Clock
	}

	// TimeoutError is returned when the condition stayed false for the whole
	// timeout.
	TimeoutError struct {
		What    string
		Timeout time.Duration
	}

	realClock struct{}
)

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("waiting for %s: %v (waited %s)", e.What, ErrTimeout, e.Timeout)
}

// Unwrap returns ErrTimeout.
func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// Until polls cond every Interval until it returns true, returns an error,
// the timeout elapses or ctx is canceled. The condition is checked once
// before the first sleep, so an already satisfied condition returns
// immediately.
func Until(ctx context.Context, cond Condition, opts Options) error {
	opts = opts.withDefaults()
	deadline := opts.Clock.Now().Add(opts.Timeout)

	for {
		ok, err := cond()
		if err != nil {
			return fmt.Errorf("waiting for %s: %w", opts.What, err)
		}
		if ok {
			return nil
		}
		if !opts.Clock.Now().Before(deadline) {
			return &TimeoutError{What: opts.What, Timeout: opts.Timeout}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", opts.What, ctx.Err())
		case <-opts.Clock.After(opts.Interval):
		}
	}
}

// FileExists returns a Condition that holds once path exists.
func FileExists(path string) Condition {
	return func() (bool, error) {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, os.ErrNotExist):
			return false, nil
		default:
			return false, err
		}
	}
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Clock == nil {
		o.Clock = RealClock()
	}
	if o.What == "" {
		o.What = "condition"
	}
	return o
}
