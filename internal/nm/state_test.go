package nm

import "testing"

func TestDeviceStateFromWire(t *testing.T) {
	cases := []struct {
		wire uint32
		want State
	}{
		{0, StateUnknown},
		{10, StateUnmanaged},
		{20, StateUnavailable},
		{30, StateDisconnected},
		{40, StateConnecting},
		{50, StateConnecting},
		{60, StateNeedAuth},
		{70, StateConnecting},
		{80, StateConnecting},
		{90, StateConnecting},
		{100, StateActivated},
		{110, StateDeactivating},
		{120, StateFailed},
		{999, StateUnknown},
	}
	for _, tc := range cases {
		if got := DeviceStateFromWire(tc.wire); got != tc.want {
			t.Errorf("DeviceStateFromWire(%d) = %s, want %s", tc.wire, got, tc.want)
		}
	}
}

func TestActiveStateFromWire(t *testing.T) {
	cases := []struct {
		wire uint32
		want State
	}{
		{0, StateUnknown},
		{1, StateConnecting},
		{2, StateActivated},
		{3, StateDeactivating},
		{4, StateDisconnected},
		{77, StateUnknown},
	}
	for _, tc := range cases {
		if got := ActiveStateFromWire(tc.wire); got != tc.want {
			t.Errorf("ActiveStateFromWire(%d) = %s, want %s", tc.wire, got, tc.want)
		}
	}
}

func TestStateTerminal(t *testing.T) {
	terminal := []State{StateUnmanaged, StateUnavailable, StateDisconnected, StateActivated, StateFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	// An agent may still supply credentials from need-auth, so the
	// progression states all stay open.
	open := []State{StateUnknown, StateConnecting, StateNeedAuth, StateDeactivating}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestStateString(t *testing.T) {
	if got := StateNeedAuth.String(); got != "need-auth" {
		t.Errorf("String() = %q", got)
	}
	if got := State(255).String(); got != "unknown" {
		t.Errorf("out-of-range String() = %q", got)
	}
}
