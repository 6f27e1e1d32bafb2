// Package invoke bounds host capability calls with a timeout.
//
// The host offers no cancellation for in-flight work, so the bound is
// one-sided: on expiry the caller stops waiting, while the factory keeps
// running and its eventual result is discarded.
package invoke

import (
	"context"
	"time"

	"github.com/brieflex/brieflex/errors"
)

// DefaultTimeout is the per-creation timeout budget. Each capability
// creation gets its own fresh budget; the bound is not cumulative across
// chunked calls.
const DefaultTimeout = 60 * time.Second

// Invoke runs factory and waits at most timeout for it to resolve.
// A non-positive timeout selects DefaultTimeout. On expiry the returned
// error wraps errors.ErrInvocationTimeout. The pending timer is always
// released, and concurrent invocations are independent. A panicking factory
// is contained and surfaced as an ordinary error.
func Invoke[T any](ctx context.Context, factory func(context.Context) (T, error), timeout time.Duration) (T, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	type outcome struct {
		value T
		err   error
	}

	// Buffered so a late-resolving factory never blocks after the caller
	// has stopped waiting.
	resultCh := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				resultCh <- outcome{value: zero, err: errors.Newf("factory panicked: %v", r)}
			}
		}()
		value, err := factory(ctx)
		resultCh <- outcome{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-resultCh:
		return out.value, out.err
	case <-timer.C:
		var zero T
		return zero, errors.Wrapf(errors.ErrInvocationTimeout, "after %s", timeout)
	case <-ctx.Done():
		var zero T
		return zero, errors.Wrap(ctx.Err(), "invocation aborted")
	}
}
