package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/errors"
)

// WithTimeout runs fn under a context that is cancelled after timeout and
// returns its value. When the deadline passes first the error wraps
// errors.ErrTimeout; fn keeps its context and should stop promptly once it
// is cancelled. A non-positive timeout runs fn directly.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		val, err := fn(timeoutCtx)
		done <- outcome{val, err}
	}()

	var zero T
	select {
	case out := <-done:
		if out.err != nil && timeoutCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return out.val, fmt.Errorf("%s: %w (limit: %v): %w", name, apperrors.ErrTimeout, timeout, out.err)
		}
		return out.val, out.err
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
		}
		return zero, fmt.Errorf("%s: %w (limit: %v): %w", name, apperrors.ErrTimeout, timeout, context.DeadlineExceeded)
	}
}
