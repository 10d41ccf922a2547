package nm

import "context"

// ChangeKind tags what happened to a tracked object.
type ChangeKind int

const (
	// ChangeStateChanged reports a state transition on the source object.
	ChangeStateChanged ChangeKind = iota
	// ChangeAppeared reports a new object announced by the service.
	ChangeAppeared
	// ChangeVanished reports an object removed by the service.
	ChangeVanished
	// ChangeListChanged reports that an object list property changed.
	ChangeListChanged
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeStateChanged:
		return "state-changed"
	case ChangeAppeared:
		return "appeared"
	case ChangeVanished:
		return "vanished"
	case ChangeListChanged:
		return "list-changed"
	default:
		return "unknown"
	}
}

// Change is one observation from a tracked object. Object names the affected
// object, which for appeared/vanished events differs from the source that
// announced it. State is only meaningful for ChangeStateChanged.
type Change struct {
	Kind   ChangeKind
	Object string
	State  State
}

// ChangeStream is an ordered, cancellable feed of changes from one source.
type ChangeStream interface {
	Changes() <-chan Change
	Err() error
	Close()
}

// ChangeSource is a remote object that can be watched for changes.
// internal/monitor merges many of these into one feed.
type ChangeSource interface {
	Path() string
	SubscribeChanges(ctx context.Context) (ChangeStream, error)
}
