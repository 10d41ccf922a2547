package bus

import (
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

func newTestStream(raw chan *dbus.Signal) *dbusStream {
	s := &dbusStream{
		raw:     raw,
		out:     make(chan Signal, signalBuffer),
		done:    make(chan struct{}),
		release: func() {},
		path:    "/org/freedesktop/NetworkManager/Devices/2",
		iface:   "org.freedesktop.NetworkManager.Device",
		member:  "StateChanged",
	}
	go s.pump()
	return s
}

func waitStreamEnd(t *testing.T, events <-chan Signal) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not end")
		}
	}
}

func TestStreamMatches(t *testing.T) {
	stream := &dbusStream{
		path:   "/org/freedesktop/NetworkManager/Devices/2",
		iface:  "org.freedesktop.NetworkManager.Device",
		member: "StateChanged",
	}

	t.Run("matching signal accepted", func(t *testing.T) {
		sig := &dbus.Signal{
			Path: "/org/freedesktop/NetworkManager/Devices/2",
			Name: "org.freedesktop.NetworkManager.Device.StateChanged",
		}
		if !stream.matches(sig) {
			t.Error("expected signal to match")
		}
	})

	t.Run("other object rejected", func(t *testing.T) {
		sig := &dbus.Signal{
			Path: "/org/freedesktop/NetworkManager/Devices/3",
			Name: "org.freedesktop.NetworkManager.Device.StateChanged",
		}
		if stream.matches(sig) {
			t.Error("signal for a different object must not match")
		}
	})

	t.Run("other member rejected", func(t *testing.T) {
		sig := &dbus.Signal{
			Path: "/org/freedesktop/NetworkManager/Devices/2",
			Name: "org.freedesktop.NetworkManager.Device.AccessPointAdded",
		}
		if stream.matches(sig) {
			t.Error("signal for a different member must not match")
		}
	})
}

func TestStreamConnectionDropThenClose(t *testing.T) {
	raw := make(chan *dbus.Signal, signalBuffer)
	stream := newTestStream(raw)

	// godbus closes the delivery channel itself when the connection goes
	// down; the stream's own Close afterwards must stay safe.
	close(raw)
	waitStreamEnd(t, stream.Events())

	if !errors.Is(stream.Err(), ErrStreamClosed) {
		t.Errorf("Err() = %v, want ErrStreamClosed", stream.Err())
	}

	stream.Close()
	stream.Close()
}

func TestStreamCloseUnblocksPump(t *testing.T) {
	raw := make(chan *dbus.Signal, signalBuffer)
	stream := newTestStream(raw)

	stream.Close()
	waitStreamEnd(t, stream.Events())

	if err := stream.Err(); err != nil {
		t.Errorf("deliberate close must not report an error, got %v", err)
	}
}

func TestStreamBurstKeepsOrder(t *testing.T) {
	raw := make(chan *dbus.Signal, signalBuffer)
	handler := dbus.NewSequentialSignalHandler()
	registrar, ok := handler.(dbus.SignalRegistrar)
	if !ok {
		t.Fatal("sequential handler must accept channel registration")
	}
	registrar.AddSignal(raw)

	stream := newTestStream(raw)

	// Deliver well past both channel buffers before reading anything, so
	// the handler is forced to queue instead of delivering directly.
	const burst = 4 * signalBuffer
	for i := 0; i < burst; i++ {
		handler.DeliverSignal("org.freedesktop.NetworkManager.Device", "StateChanged", &dbus.Signal{
			Path: "/org/freedesktop/NetworkManager/Devices/2",
			Name: "org.freedesktop.NetworkManager.Device.StateChanged",
			Body: []any{uint32(i)},
		})
	}

	for i := 0; i < burst; i++ {
		select {
		case sig := <-stream.Events():
			got, _ := sig.Body[0].(uint32)
			if got != uint32(i) {
				t.Fatalf("signal %d delivered as %d; order broken under burst", i, got)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("signal %d never delivered", i)
		}
	}

	handler.(dbus.Terminator).Terminate()
	waitStreamEnd(t, stream.Events())
	stream.Close()
}
