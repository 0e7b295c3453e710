package pdr

import (
	"context"
	"time"
)

// FrameClock delivers display refresh signals. Spacing between frames is not
// guaranteed to be constant.
type FrameClock interface {
	Frames(ctx context.Context) <-chan time.Time
}

// DefaultFrameInterval approximates a 60 Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// IntervalFrames ticks at a fixed period. Frames are dropped, not queued,
// when the loop falls behind.
type IntervalFrames time.Duration

func (f IntervalFrames) Frames(ctx context.Context) <-chan time.Time {
	d := time.Duration(f)
	if d <= 0 {
		d = DefaultFrameInterval
	}
	out := make(chan time.Time)
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				select {
				case out <- t:
				default:
				}
			}
		}
	}()
	return out
}

// ManualFrames is driven by the caller, one send per frame.
type ManualFrames chan time.Time

func (f ManualFrames) Frames(context.Context) <-chan time.Time { return f }
