package status

import (
	"context"
	"time"
)

// awaitWithDeadline blocks until done is closed, the timeout elapses or ctx
// ends. It reports whether done won. A non-nil error means ctx ended first.
func awaitWithDeadline(ctx context.Context, done <-chan struct{}, timeout time.Duration) (bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true, nil
	case <-timer.C:
		// The race may have resolved on the same tick.
		select {
		case <-done:
			return true, nil
		default:
			return false, nil
		}
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// sleep waits for d or until ctx ends, whichever is first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
