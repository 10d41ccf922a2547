// Package logging builds the slog loggers used across uplink and defines
// the standardized attribute keys shared by the daemon and CLI.
package logging
