// Package bus provides the narrow D-Bus access surface the rest of uplink
// consumes: synchronous property reads, remote method calls, and per-object
// signal subscriptions delivered as ordered, cancellable streams.
//
// The interfaces are intentionally small so tests can substitute scripted
// fakes; the real implementation sits on github.com/godbus/dbus.
package bus
