package testsupport

import (
	"context"
	"sync"

	"uplink/internal/nm"
)

// FakeChangeStream is a scripted nm.ChangeStream.
type FakeChangeStream struct {
	ch chan nm.Change

	mu     sync.Mutex
	err    error
	closed bool
	once   sync.Once
}

// NewFakeChangeStream returns an open stream.
func NewFakeChangeStream() *FakeChangeStream {
	return &FakeChangeStream{ch: make(chan nm.Change, 16)}
}

func (s *FakeChangeStream) Changes() <-chan nm.Change { return s.ch }

func (s *FakeChangeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *FakeChangeStream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}

// Closed reports whether the consumer released the stream.
func (s *FakeChangeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Emit queues a change.
func (s *FakeChangeStream) Emit(change nm.Change) {
	s.ch <- change
}

// Fail terminates the stream from the remote side with an error.
func (s *FakeChangeStream) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}

// FakeChangeSource is a scripted nm.ChangeSource.
type FakeChangeSource struct {
	PathValue    string
	SubscribeErr error

	mu     sync.Mutex
	stream *FakeChangeStream
}

// NewFakeChangeSource returns a source for the given object path.
func NewFakeChangeSource(path string) *FakeChangeSource {
	return &FakeChangeSource{PathValue: path}
}

func (f *FakeChangeSource) Path() string { return f.PathValue }

func (f *FakeChangeSource) SubscribeChanges(ctx context.Context) (nm.ChangeStream, error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	stream := NewFakeChangeStream()
	f.mu.Lock()
	f.stream = stream
	f.mu.Unlock()
	return stream, nil
}

// Stream returns the stream handed to the current subscriber, or nil.
func (f *FakeChangeSource) Stream() *FakeChangeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stream
}

// EmitState queues a state-changed event for this object.
func (f *FakeChangeSource) EmitState(state nm.State) {
	f.Stream().Emit(nm.Change{Kind: nm.ChangeStateChanged, Object: f.PathValue, State: state})
}

// Fail ends the stream from the remote side.
func (f *FakeChangeSource) Fail(err error) {
	f.Stream().Fail(err)
}
