package daemon

import (
	"testing"

	"github.com/pilebones/go-udev/netlink"
)

func TestExtractInterfaceName(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "interface env",
			env:  map[string]string{"INTERFACE": "wlan0"},
			want: "wlan0",
		},
		{
			name: "devpath fallback",
			env:  map[string]string{"DEVPATH": "/devices/pci0000:00/0000:00:14.0/usb1/1-3/net/wlan1"},
			want: "wlan1",
		},
		{
			name: "no hints",
			env:  map[string]string{},
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractInterfaceName(netlink.UEvent{Env: tc.env})
			if got != tc.want {
				t.Errorf("extractInterfaceName = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNetMatcher(t *testing.T) {
	matcher := buildNetMatcher()

	add := netlink.UEvent{
		Action: netlink.ADD,
		KObj:   "/devices/virtual/net/wg0",
		Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "wg0", "ACTION": "add"},
	}
	if !matcher.Evaluate(add) {
		t.Error("net add event must match")
	}

	remove := netlink.UEvent{
		Action: netlink.REMOVE,
		KObj:   "/devices/virtual/net/wg0",
		Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "wg0", "ACTION": "remove"},
	}
	if !matcher.Evaluate(remove) {
		t.Error("net remove event must match")
	}

	block := netlink.UEvent{
		Action: netlink.ADD,
		KObj:   "/devices/pci0000:00/block/sda",
		Env:    map[string]string{"SUBSYSTEM": "block", "DEVNAME": "/dev/sda", "ACTION": "add"},
	}
	if matcher.Evaluate(block) {
		t.Error("block subsystem event must not match")
	}

	change := netlink.UEvent{
		Action: netlink.CHANGE,
		KObj:   "/devices/virtual/net/wg0",
		Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "wg0", "ACTION": "change"},
	}
	if matcher.Evaluate(change) {
		t.Error("change action must not match")
	}
}
