package timeutil

import (
	"context"
	"time"
)

// SleepFunc blocks for d or until ctx is done. Tests swap it for a recorder.
type SleepFunc func(ctx context.Context, d time.Duration) error

// NowFunc returns the current time.
type NowFunc func() time.Time

// Sleep waits for d, returning ctx.Err() if ctx ends first.
func Sleep(ctx context.Context, d time.Duration) error {
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
