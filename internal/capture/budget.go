package capture

import (
	"context"
	"math"
	"time"
)

// DefaultRenderBase is the fixed part of the render-settle delay.
const DefaultRenderBase = 500 * time.Millisecond

// DefaultPixelsPerMicrosecond adds one microsecond of settle time for every
// ten square pixels of content.
const DefaultPixelsPerMicrosecond = 10

// RenderBudget decides how long to wait for a page of the given area to
// finish painting before it is captured.
type RenderBudget interface {
	Delay(area uint64) time.Duration
}

// LinearBudget waits Base plus one microsecond per PixelsPerMicrosecond
// square pixels.
type LinearBudget struct {
	Base                 time.Duration
	PixelsPerMicrosecond uint64
}

// Delay never decreases as area grows, and saturates instead of overflowing.
func (b LinearBudget) Delay(area uint64) time.Duration {
	ppm := b.PixelsPerMicrosecond
	if ppm == 0 {
		ppm = DefaultPixelsPerMicrosecond
	}
	base := b.Base
	if base < 0 {
		base = 0
	}

	micros := area / ppm
	headroom := uint64(math.MaxInt64-base) / uint64(time.Microsecond)
	if micros > headroom {
		return time.Duration(math.MaxInt64)
	}
	return base + time.Duration(micros)*time.Microsecond
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
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
