package retry

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError reports that an operation exceeded its deadline
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("operation timed out after %s", e.Timeout)
	}
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}

// WithTimeout runs fn with a deadline. The derived context is the abort
// primitive: a ctx-aware fn is cancelled at the transport level, not merely
// abandoned. The deferred cancel releases the timer on every path.
// Parent cancellation is reported as the parent's error, not as a timeout.
func WithTimeout(ctx context.Context, timeout time.Duration, op string, fn func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(tctx)
	}()

	select {
	case err := <-done:
		return err
	case <-tctx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TimeoutError{Op: op, Timeout: timeout}
	}
}
