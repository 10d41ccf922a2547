package nm_test

import (
	"context"
	"testing"
	"time"

	"uplink/internal/nm"
	"uplink/internal/testsupport"
)

func TestDeviceHandleSubscribeStateDecodes(t *testing.T) {
	conn := testsupport.NewFakeConn()
	obj := conn.AddObject("/dev/wlan0")
	device := nm.NewDeviceHandle(obj)

	stream, err := device.SubscribeState(context.Background())
	if err != nil {
		t.Fatalf("SubscribeState: %v", err)
	}
	defer stream.Close()

	// Device StateChanged carries (new, old, reason).
	obj.EmitSignal(nm.DeviceInterface, "StateChanged", uint32(40), uint32(30), uint32(0))
	obj.EmitSignal(nm.DeviceInterface, "StateChanged", uint32(100), uint32(40), uint32(0))

	want := []nm.State{nm.StateConnecting, nm.StateActivated}
	for i, expected := range want {
		select {
		case state := <-stream.States():
			if state != expected {
				t.Errorf("state[%d] = %s, want %s", i, state, expected)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for state %d", i)
		}
	}
}

func TestDeviceHandleSubscribeChanges(t *testing.T) {
	conn := testsupport.NewFakeConn()
	obj := conn.AddObject("/dev/wlan0")
	device := nm.NewDeviceHandle(obj)

	stream, err := device.SubscribeChanges(context.Background())
	if err != nil {
		t.Fatalf("SubscribeChanges: %v", err)
	}
	defer stream.Close()

	obj.EmitSignal(nm.DeviceInterface, "StateChanged", uint32(120), uint32(100), uint32(0))

	select {
	case change := <-stream.Changes():
		if change.Kind != nm.ChangeStateChanged || change.Object != "/dev/wlan0" || change.State != nm.StateFailed {
			t.Errorf("change = %+v", change)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestStateStreamCloseReleasesSubscription(t *testing.T) {
	conn := testsupport.NewFakeConn()
	obj := conn.AddObject("/dev/wlan0")
	device := nm.NewDeviceHandle(obj)

	stream, err := device.SubscribeState(context.Background())
	if err != nil {
		t.Fatalf("SubscribeState: %v", err)
	}
	stream.Close()
	stream.Close() // idempotent

	if obj.OpenStreams() != 0 {
		t.Errorf("%d bus subscriptions still open after close", obj.OpenStreams())
	}
}

func TestManagerHandleMergesAnnouncements(t *testing.T) {
	conn := testsupport.NewFakeConn()
	obj := conn.AddObject(nm.ManagerPath)
	mgr := nm.NewManagerHandle(obj)

	stream, err := mgr.SubscribeChanges(context.Background())
	if err != nil {
		t.Fatalf("SubscribeChanges: %v", err)
	}
	defer stream.Close()

	obj.EmitSignal(nm.ManagerInterface, "DeviceAdded", "/dev/new")
	select {
	case change := <-stream.Changes():
		if change.Kind != nm.ChangeAppeared || change.Object != "/dev/new" {
			t.Errorf("change = %+v, want appeared /dev/new", change)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for appearance")
	}

	obj.EmitSignal(nm.ManagerInterface, "DeviceRemoved", "/dev/old")
	select {
	case change := <-stream.Changes():
		if change.Kind != nm.ChangeVanished || change.Object != "/dev/old" {
			t.Errorf("change = %+v, want vanished /dev/old", change)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for removal")
	}

	// Property churn on other interfaces is not a list change.
	obj.EmitSignal("org.freedesktop.DBus.Properties", "PropertiesChanged", "org.freedesktop.NetworkManager.Device", map[string]any{}, []string{})
	obj.EmitSignal("org.freedesktop.DBus.Properties", "PropertiesChanged", nm.ManagerInterface, map[string]any{}, []string{})
	select {
	case change := <-stream.Changes():
		if change.Kind != nm.ChangeListChanged {
			t.Errorf("change = %+v, want list-changed", change)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for list change")
	}
}

func TestActiveConnectionHandleState(t *testing.T) {
	conn := testsupport.NewFakeConn()
	obj := conn.AddObject("/active/1")
	obj.SetProperty(nm.ActiveInterface, "Id", "home")
	obj.SetProperty(nm.ActiveInterface, "State", uint32(1))
	active := nm.NewActiveConnectionHandle(obj)

	id, err := active.ID(context.Background())
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id != "home" {
		t.Errorf("id = %q", id)
	}

	state, err := active.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != nm.StateConnecting {
		t.Errorf("state = %s, want connecting", state)
	}

	stream, err := active.SubscribeState(context.Background())
	if err != nil {
		t.Fatalf("SubscribeState: %v", err)
	}
	defer stream.Close()

	obj.EmitSignal(nm.ActiveInterface, "StateChanged", uint32(2), uint32(0))
	select {
	case state := <-stream.States():
		if state != nm.StateActivated {
			t.Errorf("state = %s, want activated", state)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for state")
	}
}
