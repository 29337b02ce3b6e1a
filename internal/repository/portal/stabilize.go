package portal

import (
	"context"
	"time"
)

// waitStable polls count every interval until it returns the same value for
// polls consecutive reads, or timeout elapses. It returns the last count read.
// Reaching the timeout is not an error.
func waitStable(
	ctx context.Context, count func() (int, error), interval time.Duration, polls int, timeout time.Duration,
) (int, error) {
	if polls < 1 {
		polls = 1
	}

	last, err := count()
	if err != nil {
		return 0, err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for stable := 0; stable < polls; {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-deadline.C:
			return last, nil
		case <-ticker.C:
		}

		n, err := count()
		if err != nil {
			return last, err
		}
		if n == last {
			stable++
		} else {
			stable = 0
			last = n
		}
	}
	return last, nil
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
