package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"uplink/internal/logging"
)

const (
	propertiesInterface = "org.freedesktop.DBus.Properties"
	propertiesGet       = propertiesInterface + ".Get"
)

// signalBuffer sizes the per-subscription channel godbus delivers into.
// Large enough that a burst of state transitions is not dropped while the
// consumer is between reads.
const signalBuffer = 32

// DBusConn implements Conn on a godbus connection.
type DBusConn struct {
	conn        *dbus.Conn
	callTimeout time.Duration
	logger      *slog.Logger
}

// Connect opens a bus connection. An empty address connects to the system
// bus; anything else is treated as an explicit D-Bus address (used by tests
// and containerized setups). callTimeout bounds individual calls when the
// caller's context carries no earlier deadline.
func Connect(address string, callTimeout time.Duration, logger *slog.Logger) (*DBusConn, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	// The default godbus handler spawns unordered goroutines to deliver
	// signals once a subscription channel fills up; the sequential handler
	// queues instead, so per-subscription receipt order survives bursts.
	ordered := dbus.WithSignalHandler(dbus.NewSequentialSignalHandler())
	if address == "" {
		conn, err = dbus.ConnectSystemBus(ordered)
	} else {
		conn, err = dbus.Connect(address, ordered)
	}
	if err != nil {
		return nil, fmt.Errorf("connect bus: %w", err)
	}

	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}

	return &DBusConn{
		conn:        conn,
		callTimeout: callTimeout,
		logger:      logging.NewComponentLogger(logger, "bus"),
	}, nil
}

// Object returns a reference to the remote object at path owned by service.
func (c *DBusConn) Object(service, path string) Object {
	return &dbusObject{
		conn:    c,
		service: service,
		path:    dbus.ObjectPath(path),
	}
}

// Close shuts the connection down. Any open streams end with ErrStreamClosed.
func (c *DBusConn) Close() error {
	return c.conn.Close()
}

func (c *DBusConn) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

type dbusObject struct {
	conn    *DBusConn
	service string
	path    dbus.ObjectPath
}

func (o *dbusObject) Path() string {
	return string(o.path)
}

func (o *dbusObject) GetProperty(ctx context.Context, iface, name string) (any, error) {
	ctx, cancel := o.conn.callContext(ctx)
	defer cancel()

	remote := o.conn.conn.Object(o.service, o.path)
	call := remote.CallWithContext(ctx, propertiesGet, 0, iface, name)
	if call.Err != nil {
		return nil, fmt.Errorf("get %s.%s on %s: %w", iface, name, o.path, call.Err)
	}

	var value dbus.Variant
	if err := call.Store(&value); err != nil {
		return nil, fmt.Errorf("decode %s.%s on %s: %w", iface, name, o.path, err)
	}
	return value.Value(), nil
}

func (o *dbusObject) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	ctx, cancel := o.conn.callContext(ctx)
	defer cancel()

	remote := o.conn.conn.Object(o.service, o.path)
	call := remote.CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, o.path, call.Err)
	}
	return call.Body, nil
}

func (o *dbusObject) Subscribe(ctx context.Context, iface, member string) (Stream, error) {
	options := []dbus.MatchOption{
		dbus.WithMatchObjectPath(o.path),
		dbus.WithMatchInterface(iface),
		dbus.WithMatchMember(member),
	}
	if err := o.conn.conn.AddMatchSignalContext(ctx, options...); err != nil {
		return nil, fmt.Errorf("add match for %s.%s on %s: %w", iface, member, o.path, err)
	}

	raw := make(chan *dbus.Signal, signalBuffer)
	o.conn.conn.Signal(raw)

	stream := &dbusStream{
		raw:    raw,
		out:    make(chan Signal, signalBuffer),
		done:   make(chan struct{}),
		path:   string(o.path),
		iface:  iface,
		member: member,
		release: func() {
			_ = o.conn.conn.RemoveMatchSignal(options...)
			o.conn.conn.RemoveSignal(raw)
		},
	}
	go stream.pump()

	o.conn.logger.Debug("signal subscription opened",
		logging.String(logging.FieldObjectPath, string(o.path)),
		logging.String("member", iface+"."+member),
	)
	return stream, nil
}

type dbusStream struct {
	// raw is owned by godbus: the connection closes it on teardown, and
	// nothing here may close it.
	raw     chan *dbus.Signal
	out     chan Signal
	done    chan struct{}
	release func()

	path   string
	iface  string
	member string

	closeOnce sync.Once
	closed    bool // set by Close so a concurrent connection drop stays silent

	mu  sync.Mutex
	err error
}

func (s *dbusStream) Events() <-chan Signal {
	return s.out
}

func (s *dbusStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close releases the match rule and ends the stream. Safe to call from any
// goroutine, any number of times, including after the connection itself has
// been closed.
func (s *dbusStream) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.done)
		s.release()
	})
}

func (s *dbusStream) pump() {
	defer close(s.out)

	for {
		select {
		case <-s.done:
			return
		case sig, ok := <-s.raw:
			if !ok {
				// godbus closed the delivery channel: the connection is
				// gone. A Close racing the teardown stays a normal end.
				s.mu.Lock()
				if !s.closed {
					s.err = ErrStreamClosed
				}
				s.mu.Unlock()
				return
			}
			if sig == nil || !s.matches(sig) {
				continue
			}
			select {
			case s.out <- Signal{
				Path:      string(sig.Path),
				Interface: s.iface,
				Member:    s.member,
				Body:      sig.Body,
			}:
			case <-s.done:
				return
			}
		}
	}
}

// matches filters the shared godbus delivery down to this subscription.
func (s *dbusStream) matches(sig *dbus.Signal) bool {
	if string(sig.Path) != s.path {
		return false
	}
	return sig.Name == s.iface+"."+s.member
}
