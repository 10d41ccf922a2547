package testsupport

import (
	"context"
	"sync"

	"uplink/internal/nm"
)

// FakeStateStream is a scripted nm.StateStream.
type FakeStateStream struct {
	ch chan nm.State

	mu     sync.Mutex
	err    error
	closed bool
	once   sync.Once
}

// NewFakeStateStream returns an open stream with room for a few queued
// transitions.
func NewFakeStateStream() *FakeStateStream {
	return &FakeStateStream{ch: make(chan nm.State, 16)}
}

func (s *FakeStateStream) States() <-chan nm.State { return s.ch }

func (s *FakeStateStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close marks consumer-side teardown.
func (s *FakeStateStream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}

// Closed reports whether the consumer released the stream; used to assert
// that no subscription outlives its operation.
func (s *FakeStateStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Emit queues a state transition.
func (s *FakeStateStream) Emit(state nm.State) {
	s.ch <- state
}

// End terminates the stream from the remote side with an optional error.
func (s *FakeStateStream) End(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}

// FakeStateSource is a scripted nm.StateSource. The polled state and the
// signal stream are controlled independently so tests can simulate a
// transition landing exactly in the gap between subscribe and read: script
// OnSubscribe to emit the new state while the polled value stays stale.
type FakeStateSource struct {
	PathValue    string
	SubscribeErr error
	StateErr     error

	// OnSubscribe runs after the subscription is established, before the
	// waiter's first read.
	OnSubscribe func(*FakeStateSource)

	mu      sync.Mutex
	current nm.State
	stream  *FakeStateStream
}

// NewFakeStateSource returns a source polling at the given initial state.
func NewFakeStateSource(path string, initial nm.State) *FakeStateSource {
	return &FakeStateSource{PathValue: path, current: initial}
}

func (f *FakeStateSource) Path() string { return f.PathValue }

func (f *FakeStateSource) State(ctx context.Context) (nm.State, error) {
	if f.StateErr != nil {
		return nm.StateUnknown, f.StateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *FakeStateSource) SubscribeState(ctx context.Context) (nm.StateStream, error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	stream := NewFakeStateStream()
	f.mu.Lock()
	f.stream = stream
	f.mu.Unlock()
	if f.OnSubscribe != nil {
		f.OnSubscribe(f)
	}
	return stream, nil
}

// Stream returns the stream handed to the current subscriber, or nil.
func (f *FakeStateSource) Stream() *FakeStateStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stream
}

// SetState changes only the polled state.
func (f *FakeStateSource) SetState(state nm.State) {
	f.mu.Lock()
	f.current = state
	f.mu.Unlock()
}

// Emit pushes a transition onto the stream without touching the polled
// state. Panics if nothing has subscribed yet.
func (f *FakeStateSource) Emit(state nm.State) {
	f.Stream().Emit(state)
}

// Advance updates the polled state and emits the transition.
func (f *FakeStateSource) Advance(state nm.State) {
	f.SetState(state)
	if stream := f.Stream(); stream != nil {
		stream.Emit(state)
	}
}
