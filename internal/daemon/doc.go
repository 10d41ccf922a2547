// Package daemon runs the long-lived observer: it tracks every
// NetworkManager device plus the manager object in one change feed, records
// what it sees, scans for wireless networks on a schedule, and reacts to
// interface hotplug. It enforces single-instance execution with a lock file
// and serializes its own activations per device.
package daemon
