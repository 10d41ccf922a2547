package testsupport

import (
	"context"
	"fmt"
	"sync"

	"uplink/internal/bus"
)

// FakeConn is a scripted bus.Conn serving objects by path. Service names are
// ignored; the tests here only ever talk to one service.
type FakeConn struct {
	mu      sync.Mutex
	objects map[string]*FakeObject
	closed  bool
}

// NewFakeConn returns an empty connection.
func NewFakeConn() *FakeConn {
	return &FakeConn{objects: make(map[string]*FakeObject)}
}

// AddObject registers and returns a scripted object at path.
func (c *FakeConn) AddObject(path string) *FakeObject {
	obj := &FakeObject{
		path:       path,
		properties: make(map[string]any),
		calls:      make(map[string]func(args ...any) ([]any, error)),
	}
	c.mu.Lock()
	c.objects[path] = obj
	c.mu.Unlock()
	return obj
}

func (c *FakeConn) Object(service, path string) bus.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	if obj, ok := c.objects[path]; ok {
		return obj
	}
	// Unknown objects answer like a service that has never heard of them.
	return &FakeObject{
		path:       path,
		properties: make(map[string]any),
		calls:      make(map[string]func(args ...any) ([]any, error)),
	}
}

func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// FakeObject is a scripted bus.Object. Properties are keyed by
// "iface.name", calls by the fully qualified method name.
type FakeObject struct {
	path string

	mu         sync.Mutex
	properties map[string]any
	calls      map[string]func(args ...any) ([]any, error)
	streams    []*FakeBusStream
}

// SetProperty scripts a property value.
func (o *FakeObject) SetProperty(iface, name string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.properties[iface+"."+name] = value
}

// HandleCall scripts a method.
func (o *FakeObject) HandleCall(method string, fn func(args ...any) ([]any, error)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls[method] = fn
}

func (o *FakeObject) Path() string { return o.path }

func (o *FakeObject) GetProperty(ctx context.Context, iface, name string) (any, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	value, ok := o.properties[iface+"."+name]
	if !ok {
		return nil, fmt.Errorf("fake bus: no property %s.%s on %s", iface, name, o.path)
	}
	return value, nil
}

func (o *FakeObject) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	o.mu.Lock()
	fn, ok := o.calls[method]
	o.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("fake bus: no method %s on %s", method, o.path)
	}
	return fn(args...)
}

func (o *FakeObject) Subscribe(ctx context.Context, iface, member string) (bus.Stream, error) {
	stream := &FakeBusStream{
		ch:     make(chan bus.Signal, 16),
		iface:  iface,
		member: member,
	}
	o.mu.Lock()
	o.streams = append(o.streams, stream)
	o.mu.Unlock()
	return stream, nil
}

// EmitSignal delivers a signal body to every subscription matching the
// member.
func (o *FakeObject) EmitSignal(iface, member string, body ...any) {
	o.mu.Lock()
	streams := make([]*FakeBusStream, len(o.streams))
	copy(streams, o.streams)
	o.mu.Unlock()
	for _, stream := range streams {
		if stream.iface == iface && stream.member == member && !stream.Closed() {
			stream.ch <- bus.Signal{Path: o.path, Interface: iface, Member: member, Body: body}
		}
	}
}

// OpenStreams counts subscriptions that have not been closed; used to
// assert teardown.
func (o *FakeObject) OpenStreams() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	open := 0
	for _, stream := range o.streams {
		if !stream.Closed() {
			open++
		}
	}
	return open
}

// FakeBusStream is the bus.Stream handed out by FakeObject.
type FakeBusStream struct {
	ch     chan bus.Signal
	iface  string
	member string

	mu     sync.Mutex
	err    error
	closed bool
	once   sync.Once
}

func (s *FakeBusStream) Events() <-chan bus.Signal { return s.ch }

func (s *FakeBusStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *FakeBusStream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}

// Closed reports whether the consumer released the stream.
func (s *FakeBusStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// End terminates the stream from the remote side.
func (s *FakeBusStream) End(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}
