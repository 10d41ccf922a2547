package logging

// Standardized attribute keys. Every subsystem logs with these so daemon
// output stays greppable.
const (
	// FieldComponent identifies the emitting subsystem (monitor, session, ...).
	FieldComponent = "component"
	// FieldEventType is a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next diagnostic step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact states the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldObjectPath is the D-Bus object path an event refers to.
	FieldObjectPath = "object_path"
	// FieldDevice is the network interface name.
	FieldDevice = "device"
	// FieldConnectionID is the NetworkManager connection profile id.
	FieldConnectionID = "connection_id"
	// FieldState is the normalized connection/device state.
	FieldState = "state"
	// FieldRunID is the daemon run identifier.
	FieldRunID = "run_id"
)
