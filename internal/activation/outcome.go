package activation

import (
	"errors"
	"fmt"

	"uplink/internal/nm"
)

var (
	// ErrTimeout marks a wait that hit its deadline before any terminal
	// classification.
	ErrTimeout = errors.New("timeout waiting for state")
	// ErrStreamEnded marks a signal stream that closed before a terminal
	// classification.
	ErrStreamEnded = errors.New("state stream ended")
	// ErrUnexpectedState marks a terminal state other than the one asked for,
	// e.g. failed instead of activated.
	ErrUnexpectedState = errors.New("unexpected terminal state")
)

// Kind is the closed set of ways a wait can end.
type Kind int

const (
	KindSuccess Kind = iota
	KindTimeout
	KindFailure
	KindStreamEnded
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindTimeout:
		return "timeout"
	case KindFailure:
		return "failure"
	case KindStreamEnded:
		return "stream-ended"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of a wait. Last carries the most recently
// observed state for diagnostics; Err is sentinel-tagged so callers branch
// with errors.Is instead of string matching.
type Outcome struct {
	Kind Kind
	Last nm.State
	Err  error
}

// Succeeded reports whether the wait reached the requested state.
func (o Outcome) Succeeded() bool {
	return o.Kind == KindSuccess
}

// Success builds a success outcome at the given state.
func Success(state nm.State) Outcome {
	return Outcome{Kind: KindSuccess, Last: state}
}

// Timeout builds a deadline outcome carrying the last observed state.
func Timeout(last nm.State) Outcome {
	return Outcome{
		Kind: KindTimeout,
		Last: last,
		Err:  fmt.Errorf("%w: last observed state %s", ErrTimeout, last),
	}
}

// Failure builds a failure outcome. The error passes through untouched so
// transport failures keep their original identity.
func Failure(last nm.State, err error) Outcome {
	return Outcome{Kind: KindFailure, Last: last, Err: err}
}

// StreamEnded builds an outcome for a subscription that closed early.
func StreamEnded(last nm.State, cause error) Outcome {
	err := error(ErrStreamEnded)
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrStreamEnded, cause)
	}
	return Outcome{Kind: KindStreamEnded, Last: last, Err: err}
}

// Classifier inspects an observed state and, once it can, declares the
// outcome. States it leaves unclassified keep the wait running, so
// oscillation between non-terminal states never ends a wait.
type Classifier func(nm.State) (Outcome, bool)

// ReachState builds the classifier for the common case: succeed on target,
// fail with ErrUnexpectedState on any other terminal state.
func ReachState(target nm.State) Classifier {
	return func(state nm.State) (Outcome, bool) {
		if state == target {
			return Success(state), true
		}
		if state.Terminal() {
			return Failure(state, fmt.Errorf("%w: %s (wanted %s)", ErrUnexpectedState, state, target)), true
		}
		return Outcome{}, false
	}
}
