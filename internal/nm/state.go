package nm

import "context"

// State is the normalized connection progression. It collapses
// NetworkManager's two state spaces (device states and active-connection
// states) into one ordered enumeration so callers classify outcomes against
// a single vocabulary.
type State int

const (
	StateUnknown State = iota
	StateUnmanaged
	StateUnavailable
	StateDisconnected
	StateConnecting
	StateNeedAuth
	StateActivated
	StateDeactivating
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnmanaged:
		return "unmanaged"
	case StateUnavailable:
		return "unavailable"
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateNeedAuth:
		return "need-auth"
	case StateActivated:
		return "activated"
	case StateDeactivating:
		return "deactivating"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition occurs from s without new
// external action. NeedAuth is deliberately non-terminal: an agent may still
// supply credentials and resume the activation.
func (s State) Terminal() bool {
	switch s {
	case StateUnmanaged, StateUnavailable, StateDisconnected, StateActivated, StateFailed:
		return true
	default:
		return false
	}
}

// NM_DEVICE_STATE_* wire values.
const (
	deviceStateUnknown      uint32 = 0
	deviceStateUnmanaged    uint32 = 10
	deviceStateUnavailable  uint32 = 20
	deviceStateDisconnected uint32 = 30
	deviceStatePrepare      uint32 = 40
	deviceStateConfig       uint32 = 50
	deviceStateNeedAuth     uint32 = 60
	deviceStateIPConfig     uint32 = 70
	deviceStateIPCheck      uint32 = 80
	deviceStateSecondaries  uint32 = 90
	deviceStateActivated    uint32 = 100
	deviceStateDeactivating uint32 = 110
	deviceStateFailed       uint32 = 120
)

// DeviceStateFromWire normalizes an NM_DEVICE_STATE value.
func DeviceStateFromWire(v uint32) State {
	switch v {
	case deviceStateUnmanaged:
		return StateUnmanaged
	case deviceStateUnavailable:
		return StateUnavailable
	case deviceStateDisconnected:
		return StateDisconnected
	case deviceStatePrepare, deviceStateConfig, deviceStateIPConfig, deviceStateIPCheck, deviceStateSecondaries:
		return StateConnecting
	case deviceStateNeedAuth:
		return StateNeedAuth
	case deviceStateActivated:
		return StateActivated
	case deviceStateDeactivating:
		return StateDeactivating
	case deviceStateFailed:
		return StateFailed
	default:
		return StateUnknown
	}
}

// NM_ACTIVE_CONNECTION_STATE_* wire values.
const (
	activeStateUnknown      uint32 = 0
	activeStateActivating   uint32 = 1
	activeStateActivated    uint32 = 2
	activeStateDeactivating uint32 = 3
	activeStateDeactivated  uint32 = 4
)

// ActiveStateFromWire normalizes an NM_ACTIVE_CONNECTION_STATE value.
func ActiveStateFromWire(v uint32) State {
	switch v {
	case activeStateActivating:
		return StateConnecting
	case activeStateActivated:
		return StateActivated
	case activeStateDeactivating:
		return StateDeactivating
	case activeStateDeactivated:
		return StateDisconnected
	default:
		return StateUnknown
	}
}

// StateStream is an ordered, cancellable feed of normalized states for one
// remote object. States is closed when the stream ends; Err reports whether
// the end was abnormal.
type StateStream interface {
	States() <-chan State
	Err() error
	Close()
}

// StateSource is a remote object whose state can be read synchronously and
// watched asynchronously. The subscription must be established before the
// read when both are used to converge on a state, so no transition between
// the two is lost; internal/activation relies on that ordering.
type StateSource interface {
	Path() string
	State(ctx context.Context) (State, error)
	SubscribeState(ctx context.Context) (StateStream, error)
}
