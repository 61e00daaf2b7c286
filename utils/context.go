package utils

import (
	"context"
	"time"
)

// ContextSleep blocks for d or until ctx is done. It returns nil if the context was cancelled first.
func ContextSleep(ctx context.Context, d time.Duration) *time.Time {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case t := <-timer.C:
		return &t
	}
}

// RunEvery calls f right away and then every interval until ctx is done.
func RunEvery(ctx context.Context, interval time.Duration, f func(ctx context.Context)) {
	for {
		f(ctx)
		if ContextSleep(ctx, interval) == nil {
			return
		}
	}
}
