// Package config loads, validates, and normalizes the TOML configuration
// shared by the uplink CLI and the uplinkd daemon.
package config
