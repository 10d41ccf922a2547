package nm

import (
	"fmt"
	"strings"
)

// DeviceKind classifies a NetworkManager device.
type DeviceKind int

const (
	KindUnknown DeviceKind = iota
	KindEthernet
	KindWifi
	KindModem
	KindBond
	KindVLAN
	KindBridge
	KindTun
	KindWireGuard
	KindLoopback
)

func (k DeviceKind) String() string {
	switch k {
	case KindEthernet:
		return "ethernet"
	case KindWifi:
		return "wifi"
	case KindModem:
		return "modem"
	case KindBond:
		return "bond"
	case KindVLAN:
		return "vlan"
	case KindBridge:
		return "bridge"
	case KindTun:
		return "tun"
	case KindWireGuard:
		return "wireguard"
	case KindLoopback:
		return "loopback"
	default:
		return "unknown"
	}
}

// ParseDeviceKind maps a user-supplied kind name to a DeviceKind.
func ParseDeviceKind(value string) (DeviceKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ethernet", "wired":
		return KindEthernet, nil
	case "wifi", "wireless":
		return KindWifi, nil
	case "modem":
		return KindModem, nil
	case "bond":
		return KindBond, nil
	case "vlan":
		return KindVLAN, nil
	case "bridge":
		return KindBridge, nil
	case "tun":
		return KindTun, nil
	case "wireguard", "vpn":
		return KindWireGuard, nil
	case "loopback":
		return KindLoopback, nil
	default:
		return KindUnknown, fmt.Errorf("unknown device kind %q", value)
	}
}

// NM_DEVICE_TYPE_* wire values.
const (
	deviceTypeEthernet  uint32 = 1
	deviceTypeWifi      uint32 = 2
	deviceTypeModem     uint32 = 8
	deviceTypeBond      uint32 = 10
	deviceTypeVLAN      uint32 = 11
	deviceTypeBridge    uint32 = 13
	deviceTypeTun       uint32 = 16
	deviceTypeWireGuard uint32 = 29
	deviceTypeLoopback  uint32 = 32
)

// DeviceKindFromWire normalizes an NM_DEVICE_TYPE value.
func DeviceKindFromWire(v uint32) DeviceKind {
	switch v {
	case deviceTypeEthernet:
		return KindEthernet
	case deviceTypeWifi:
		return KindWifi
	case deviceTypeModem:
		return KindModem
	case deviceTypeBond:
		return KindBond
	case deviceTypeVLAN:
		return KindVLAN
	case deviceTypeBridge:
		return KindBridge
	case deviceTypeTun:
		return KindTun
	case deviceTypeWireGuard:
		return KindWireGuard
	case deviceTypeLoopback:
		return KindLoopback
	default:
		return KindUnknown
	}
}
