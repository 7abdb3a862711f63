package capture

import (
	"context"
	"time"
)

// Tick is the capture and countdown interval.
const Tick = time.Second

// Clock suspends the run between ticks. Sleep returns ctx.Err() when the
// context ends first.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock sleeps on wall-clock timers.
type RealClock struct{}

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
