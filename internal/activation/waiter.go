package activation

import (
	"context"
	"time"

	"uplink/internal/nm"
)

// Conservative defaults. Bringing a connection up can legitimately take
// tens of seconds (DHCP, authentication); tearing one down cannot.
const (
	DefaultActivateTimeout   = 90 * time.Second
	DefaultDeactivateTimeout = 15 * time.Second
)

// WaitForState watches src until classify declares an outcome, the timeout
// elapses, the stream ends, or ctx is canceled. The subscription is
// established strictly before the initial state read, so a transition in
// that gap arrives through the stream instead of being lost, and it is
// released on every return path.
func WaitForState(ctx context.Context, src nm.StateSource, classify Classifier, timeout time.Duration) Outcome {
	if timeout <= 0 {
		timeout = DefaultActivateTimeout
	}

	stream, err := src.SubscribeState(ctx)
	if err != nil {
		return Failure(nm.StateUnknown, err)
	}
	defer stream.Close()

	last, err := src.State(ctx)
	if err != nil {
		return Failure(nm.StateUnknown, err)
	}
	if outcome, done := classify(last); done {
		return outcome
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Failure(last, ctx.Err())
		case <-timer.C:
			return Timeout(last)
		case state, ok := <-stream.States():
			if !ok {
				return StreamEnded(last, stream.Err())
			}
			last = state
			if outcome, done := classify(state); done {
				return outcome
			}
		}
	}
}
