package consumer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// reconnectBackoff wraps cenkalti/backoff/v5's exponential-with-jitter
// schedule with a mandatory stop: Wait always returns at latest at
// mandatoryStop, even mid-sleep, so a caller tearing the consumer down
// (Close) is never blocked behind a long backoff sleep.
type reconnectBackoff struct {
	b *backoff.ExponentialBackOff
}

func newReconnectBackoff(initial, max time.Duration) *reconnectBackoff {
	return &reconnectBackoff{
		b: &backoff.ExponentialBackOff{
			InitialInterval:     initial,
			MaxInterval:         max,
			Multiplier:          2,
			RandomizationFactor: 0.5,
		},
	}
}

// Reset restarts the schedule at InitialInterval, called after a
// successful (re)connect (§4.1 step 5).
func (r *reconnectBackoff) Reset() {
	r.b.Reset()
}

// Next returns the next delay in the schedule, capped at MaxInterval.
func (r *reconnectBackoff) Next() time.Duration {
	d := r.b.NextBackOff()
	if d > r.b.MaxInterval {
		d = r.b.MaxInterval
	}
	return d
}

// Wait sleeps for Next(), returning early with false if ctx is done or
// mandatoryStop fires first; false tells the caller not to retry.
func (r *reconnectBackoff) Wait(ctx context.Context, mandatoryStop <-chan struct{}) bool {
	t := time.NewTimer(r.Next())
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-mandatoryStop:
		return false
	case <-ctx.Done():
		return false
	}
}
