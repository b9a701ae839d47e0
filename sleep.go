package proximity

import (
	"context"
	"time"
)

// Sleeper suspends the caller for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep blocks for d. It returns ctx.Err() if the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
