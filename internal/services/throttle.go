package services

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum spacing between outbound Spotify calls.
//
// One instance is shared by every scheduled job so that, for example, an
// enricher call and a synchronizer call can never fire within the spacing of
// each other. The limiter allows a single immediate call and spaces every
// subsequent one; the reservation is taken at issuance, not completion.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a Throttle with the given minimum spacing between calls.
func NewThrottle(spacing time.Duration) *Throttle {
	return &Throttle{limiter: rate.NewLimiter(rate.Every(spacing), 1)}
}

// Wait blocks until the next call may be issued or the context is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
