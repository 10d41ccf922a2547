package bus

import (
	"context"
	"errors"
)

// ErrStreamClosed reports that a signal stream ended before its owner
// released it, usually because the bus connection dropped.
var ErrStreamClosed = errors.New("bus: signal stream closed")

// Signal is one push-delivered notification emitted by a remote object.
type Signal struct {
	Path      string
	Interface string
	Member    string
	Body      []any
}

// Stream is an ordered, cancellable sequence of signals for one
// subscription. Events is closed when the stream ends; Err reports whether
// the end was abnormal. Close is idempotent and releases the underlying
// match rule, so a stream never outlives the operation that opened it.
type Stream interface {
	Events() <-chan Signal
	Err() error
	Close()
}

// Object is an addressable remote object. Callers borrow an Object for the
// duration of one operation; all blocking calls honor the context.
type Object interface {
	Path() string
	GetProperty(ctx context.Context, iface, name string) (any, error)
	Call(ctx context.Context, method string, args ...any) ([]any, error)
	Subscribe(ctx context.Context, iface, member string) (Stream, error)
}

// Conn is an open bus connection handing out object references.
type Conn interface {
	Object(service, path string) Object
	Close() error
}
