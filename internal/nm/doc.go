// Package nm speaks NetworkManager's D-Bus vocabulary: bus names and
// interfaces, the normalized state and device-kind enumerations, and handle
// types that adapt remote devices and active connections to the state-wait
// and change-feed contracts consumed by internal/activation and
// internal/monitor.
//
// Session is the long-lived entry point. It owns the bus connection and a
// resolved-handle cache; see its doc comment for acquisition and teardown
// rules.
package nm
