// Package main hosts the uplink CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into bus
// operations (activation, scanning, live monitoring) and IPC queries against
// the observer daemon. It centralizes configuration resolution, socket
// discovery, and session construction so subcommands can focus on user
// experience instead of wiring.
package main
