package nm

import (
	"context"
	"fmt"
	"sync"

	"uplink/internal/bus"
)

// DeviceHandle adapts a NetworkManager device object to the StateSource and
// ChangeSource contracts. A handle is borrowed for one operation; closing
// the streams it hands out releases everything it acquired.
type DeviceHandle struct {
	obj bus.Object
}

// NewDeviceHandle wraps a device object.
func NewDeviceHandle(obj bus.Object) *DeviceHandle {
	return &DeviceHandle{obj: obj}
}

func (h *DeviceHandle) Path() string {
	return h.obj.Path()
}

// State reads the device's current state.
func (h *DeviceHandle) State(ctx context.Context) (State, error) {
	value, err := h.obj.GetProperty(ctx, DeviceInterface, "State")
	if err != nil {
		return StateUnknown, err
	}
	raw, err := asUint32(value)
	if err != nil {
		return StateUnknown, fmt.Errorf("device state on %s: %w", h.Path(), err)
	}
	return DeviceStateFromWire(raw), nil
}

// Kind reads the device's type.
func (h *DeviceHandle) Kind(ctx context.Context) (DeviceKind, error) {
	value, err := h.obj.GetProperty(ctx, DeviceInterface, "DeviceType")
	if err != nil {
		return KindUnknown, err
	}
	raw, err := asUint32(value)
	if err != nil {
		return KindUnknown, fmt.Errorf("device type on %s: %w", h.Path(), err)
	}
	return DeviceKindFromWire(raw), nil
}

// Interface reads the kernel interface name (e.g. wlan0).
func (h *DeviceHandle) Interface(ctx context.Context) (string, error) {
	value, err := h.obj.GetProperty(ctx, DeviceInterface, "Interface")
	if err != nil {
		return "", err
	}
	name, err := asString(value)
	if err != nil {
		return "", fmt.Errorf("device interface on %s: %w", h.Path(), err)
	}
	return name, nil
}

// SubscribeState opens the device's StateChanged feed. The signal carries
// (new, old, reason); only the new state is surfaced.
func (h *DeviceHandle) SubscribeState(ctx context.Context) (StateStream, error) {
	inner, err := h.obj.Subscribe(ctx, DeviceInterface, stateChangedMember)
	if err != nil {
		return nil, err
	}
	return newStateStream(inner, DeviceStateFromWire), nil
}

// SubscribeChanges opens the same feed in change-event form for the monitor.
func (h *DeviceHandle) SubscribeChanges(ctx context.Context) (ChangeStream, error) {
	inner, err := h.obj.Subscribe(ctx, DeviceInterface, stateChangedMember)
	if err != nil {
		return nil, err
	}
	path := h.Path()
	return newChangeStream(inner, func(sig bus.Signal) (Change, bool) {
		if len(sig.Body) == 0 {
			return Change{}, false
		}
		raw, err := asUint32(sig.Body[0])
		if err != nil {
			return Change{}, false
		}
		return Change{Kind: ChangeStateChanged, Object: path, State: DeviceStateFromWire(raw)}, true
	}), nil
}

// ActiveConnectionHandle adapts an active-connection object to StateSource.
type ActiveConnectionHandle struct {
	obj bus.Object
}

// NewActiveConnectionHandle wraps an active-connection object.
func NewActiveConnectionHandle(obj bus.Object) *ActiveConnectionHandle {
	return &ActiveConnectionHandle{obj: obj}
}

func (h *ActiveConnectionHandle) Path() string {
	return h.obj.Path()
}

// ID reads the connection profile id this active connection was built from.
func (h *ActiveConnectionHandle) ID(ctx context.Context) (string, error) {
	value, err := h.obj.GetProperty(ctx, ActiveInterface, "Id")
	if err != nil {
		return "", err
	}
	id, err := asString(value)
	if err != nil {
		return "", fmt.Errorf("active connection id on %s: %w", h.Path(), err)
	}
	return id, nil
}

// State reads the active connection's current state.
func (h *ActiveConnectionHandle) State(ctx context.Context) (State, error) {
	value, err := h.obj.GetProperty(ctx, ActiveInterface, "State")
	if err != nil {
		return StateUnknown, err
	}
	raw, err := asUint32(value)
	if err != nil {
		return StateUnknown, fmt.Errorf("active connection state on %s: %w", h.Path(), err)
	}
	return ActiveStateFromWire(raw), nil
}

// SubscribeState opens the active connection's StateChanged feed.
func (h *ActiveConnectionHandle) SubscribeState(ctx context.Context) (StateStream, error) {
	inner, err := h.obj.Subscribe(ctx, ActiveInterface, stateChangedMember)
	if err != nil {
		return nil, err
	}
	return newStateStream(inner, ActiveStateFromWire), nil
}

// SubscribeChanges opens the same feed in change-event form.
func (h *ActiveConnectionHandle) SubscribeChanges(ctx context.Context) (ChangeStream, error) {
	inner, err := h.obj.Subscribe(ctx, ActiveInterface, stateChangedMember)
	if err != nil {
		return nil, err
	}
	path := h.Path()
	return newChangeStream(inner, func(sig bus.Signal) (Change, bool) {
		if len(sig.Body) == 0 {
			return Change{}, false
		}
		raw, err := asUint32(sig.Body[0])
		if err != nil {
			return Change{}, false
		}
		return Change{Kind: ChangeStateChanged, Object: path, State: ActiveStateFromWire(raw)}, true
	}), nil
}

// ManagerHandle adapts the root NetworkManager object. Its change feed folds
// DeviceAdded, DeviceRemoved, and manager property changes into appeared /
// vanished / list-changed events.
type ManagerHandle struct {
	obj bus.Object
}

// NewManagerHandle wraps the manager object.
func NewManagerHandle(obj bus.Object) *ManagerHandle {
	return &ManagerHandle{obj: obj}
}

func (h *ManagerHandle) Path() string {
	return h.obj.Path()
}

// SubscribeChanges merges the manager's announcement signals into one feed.
func (h *ManagerHandle) SubscribeChanges(ctx context.Context) (ChangeStream, error) {
	subscriptions := []struct {
		iface     string
		member    string
		transform func(bus.Signal) (Change, bool)
	}{
		{ManagerInterface, deviceAddedMember, objectPathChange(ChangeAppeared)},
		{ManagerInterface, deviceRemovedMember, objectPathChange(ChangeVanished)},
		{dbusPropertiesInterface, propertiesChangedMember, h.listChange},
	}

	streams := make([]bus.Stream, 0, len(subscriptions))
	transforms := make([]func(bus.Signal) (Change, bool), 0, len(subscriptions))
	for _, sub := range subscriptions {
		inner, err := h.obj.Subscribe(ctx, sub.iface, sub.member)
		if err != nil {
			for _, opened := range streams {
				opened.Close()
			}
			return nil, err
		}
		streams = append(streams, inner)
		transforms = append(transforms, sub.transform)
	}

	return newMergedChangeStream(streams, transforms), nil
}

func objectPathChange(kind ChangeKind) func(bus.Signal) (Change, bool) {
	return func(sig bus.Signal) (Change, bool) {
		if len(sig.Body) == 0 {
			return Change{}, false
		}
		path, err := asObjectPath(sig.Body[0])
		if err != nil {
			return Change{}, false
		}
		return Change{Kind: kind, Object: path}, true
	}
}

func (h *ManagerHandle) listChange(sig bus.Signal) (Change, bool) {
	if len(sig.Body) == 0 {
		return Change{}, false
	}
	iface, err := asString(sig.Body[0])
	if err != nil || iface != ManagerInterface {
		return Change{}, false
	}
	return Change{Kind: ChangeListChanged, Object: h.Path()}, true
}

// stateStream converts a raw signal stream into normalized states.
type stateStream struct {
	inner  bus.Stream
	decode func(uint32) State
	out    chan State
	done   chan struct{}

	closeOnce sync.Once
}

func newStateStream(inner bus.Stream, decode func(uint32) State) *stateStream {
	s := &stateStream{
		inner:  inner,
		decode: decode,
		out:    make(chan State, 8),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *stateStream) States() <-chan State { return s.out }

func (s *stateStream) Err() error { return s.inner.Err() }

func (s *stateStream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.inner.Close()
	})
}

func (s *stateStream) pump() {
	defer close(s.out)
	for sig := range s.inner.Events() {
		if len(sig.Body) == 0 {
			continue
		}
		raw, err := asUint32(sig.Body[0])
		if err != nil {
			continue
		}
		select {
		case s.out <- s.decode(raw):
		case <-s.done:
			return
		}
	}
}

// changeStream converts a raw signal stream into change events.
type changeStream struct {
	inner     bus.Stream
	transform func(bus.Signal) (Change, bool)
	out       chan Change
	done      chan struct{}

	closeOnce sync.Once
}

func newChangeStream(inner bus.Stream, transform func(bus.Signal) (Change, bool)) *changeStream {
	s := &changeStream{
		inner:     inner,
		transform: transform,
		out:       make(chan Change, 8),
		done:      make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *changeStream) Changes() <-chan Change { return s.out }

func (s *changeStream) Err() error { return s.inner.Err() }

func (s *changeStream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.inner.Close()
	})
}

func (s *changeStream) pump() {
	defer close(s.out)
	for sig := range s.inner.Events() {
		change, ok := s.transform(sig)
		if !ok {
			continue
		}
		select {
		case s.out <- change:
		case <-s.done:
			return
		}
	}
}

// mergedChangeStream folds several signal subscriptions on one object into a
// single change feed. Per-subscription order is preserved by giving each
// inner stream its own pump.
type mergedChangeStream struct {
	inners []bus.Stream
	out    chan Change
	done   chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

func newMergedChangeStream(inners []bus.Stream, transforms []func(bus.Signal) (Change, bool)) *mergedChangeStream {
	s := &mergedChangeStream{
		inners: inners,
		out:    make(chan Change, 8),
		done:   make(chan struct{}),
	}
	for i, inner := range inners {
		s.wg.Add(1)
		go s.pump(inner, transforms[i])
	}
	go func() {
		s.wg.Wait()
		close(s.out)
	}()
	return s
}

func (s *mergedChangeStream) Changes() <-chan Change { return s.out }

func (s *mergedChangeStream) Err() error {
	for _, inner := range s.inners {
		if err := inner.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *mergedChangeStream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		for _, inner := range s.inners {
			inner.Close()
		}
	})
}

func (s *mergedChangeStream) pump(inner bus.Stream, transform func(bus.Signal) (Change, bool)) {
	defer s.wg.Done()
	for sig := range inner.Events() {
		change, ok := transform(sig)
		if !ok {
			continue
		}
		select {
		case s.out <- change:
		case <-s.done:
			return
		}
	}
}
