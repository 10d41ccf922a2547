package monitor

import (
	"errors"
	"time"

	"uplink/internal/nm"
)

var (
	// ErrSubscriptionLost tags events for subscriptions that ended without
	// being asked to.
	ErrSubscriptionLost = errors.New("subscription lost")
	// ErrClosed reports use of a monitor after Close.
	ErrClosed = errors.New("monitor closed")
	// ErrAlreadyTracked reports a duplicate Track for one object.
	ErrAlreadyTracked = errors.New("object already tracked")
)

// EventKind tags a delivered event.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventAppeared
	EventVanished
	EventListChanged
	EventSubscriptionLost
)

func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "state-changed"
	case EventAppeared:
		return "appeared"
	case EventVanished:
		return "vanished"
	case EventListChanged:
		return "list-changed"
	case EventSubscriptionLost:
		return "subscription-lost"
	default:
		return "unknown"
	}
}

func fromChangeKind(kind nm.ChangeKind) EventKind {
	switch kind {
	case nm.ChangeAppeared:
		return EventAppeared
	case nm.ChangeVanished:
		return EventVanished
	case nm.ChangeListChanged:
		return EventListChanged
	default:
		return EventStateChanged
	}
}

// Event is one delivered observation. Seq is a feed-wide arrival number.
// Object names the affected object; Source names the tracked object whose
// subscription produced the event (they differ for appeared/vanished).
// State is meaningful for EventStateChanged, Err for EventSubscriptionLost.
type Event struct {
	Seq    uint64
	Object string
	Source string
	Kind   EventKind
	State  nm.State
	Err    error
	Time   time.Time
}
