// Package readiness waits, a bounded number of times, for a condition such
// as "the content region is on screen".
package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when the attempt budget runs out.
var ErrTimeout = errors.New("readiness: condition not met")

// Options bounds the polling.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultOptions checks every 250ms, 40 times (ten seconds).
func DefaultOptions() Options {
	return Options{Interval: 250 * time.Millisecond, MaxAttempts: 40}
}

// Budget is the total time the poll may take.
func (o Options) Budget() time.Duration {
	return o.Interval * time.Duration(o.MaxAttempts)
}

// Poll calls check on every tick until it returns true. It returns
// ErrTimeout (wrapped with the budget) after MaxAttempts failed checks, or
// the context error if ctx ends first.
func Poll(ctx context.Context, opts Options, check func() bool) error {
	if opts.Interval <= 0 || opts.MaxAttempts <= 0 {
		opts = DefaultOptions()
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if check() {
				return nil
			}
			attempts++
			if attempts >= opts.MaxAttempts {
				return fmt.Errorf("%w within %s", ErrTimeout, opts.Budget())
			}
		}
	}
}

// Watch runs Poll in the background and reports the outcome once.
func Watch(ctx context.Context, opts Options, check func() bool, done func(error)) {
	go func() {
		done(Poll(ctx, opts, check))
	}()
}
