package util

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle caps how often an action may start. A nil Throttle never blocks.
type Throttle struct {
	inner *rate.Limiter
}

// NewThrottle allows perSecond starts per second with a burst of the same
// size, at least one. It returns nil when perSecond is not positive.
func NewThrottle(perSecond float64) *Throttle {
	if perSecond <= 0 {
		return nil
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &Throttle{inner: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Allow reports whether a start may happen now without waiting.
func (t *Throttle) Allow() bool {
	if t == nil {
		return true
	}
	return t.inner.Allow()
}

// Wait blocks until a start is allowed or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return ctx.Err()
	}
	return t.inner.Wait(ctx)
}
