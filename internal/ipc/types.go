package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running        bool      `json:"running"`
	RunID          string    `json:"run_id"`
	PID            int       `json:"pid"`
	StartedAt      time.Time `json:"started_at"`
	LockPath       string    `json:"lock_path"`
	HistoryDBPath  string    `json:"history_db_path"`
	TrackedObjects []string  `json:"tracked_objects"`
}

// NetworksRequest fetches the recently observed network view.
type NetworksRequest struct{}

// Network is the wire form of one merged network observation.
type Network struct {
	SSID      string    `json:"ssid"`
	Band      string    `json:"band"`
	Frequency uint32    `json:"frequency"`
	Strength  uint8     `json:"strength"`
	Hidden    bool      `json:"hidden"`
	LastSeen  time.Time `json:"last_seen"`
}

// NetworksResponse contains the deduplicated network view.
type NetworksResponse struct {
	Networks []Network `json:"networks"`
}

// EventsRequest fetches recent change events, newest first. Limit zero
// means the server default.
type EventsRequest struct {
	Limit int `json:"limit"`
}

// Event is the wire form of one recorded change event.
type Event struct {
	RunID      string    `json:"run_id"`
	Seq        uint64    `json:"seq"`
	Object     string    `json:"object"`
	Source     string    `json:"source"`
	Kind       string    `json:"kind"`
	State      string    `json:"state"`
	Error      string    `json:"error,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// EventsResponse contains recorded change events.
type EventsResponse struct {
	Events []Event `json:"events"`
}
