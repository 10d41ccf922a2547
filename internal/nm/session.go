package nm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"uplink/internal/bus"
	"uplink/internal/logging"
	"uplink/internal/scan"
)

// Session is the long-lived owner of a bus connection and a cache of
// resolved handles.
//
// Acquisition and teardown rules: construct one Session per process with
// NewSession, share it freely (all methods are safe for concurrent use),
// and Close it exactly once when the process is done. Close tears down the
// bus connection, which ends every stream opened through it. Invalidate
// drops cached resolutions and must be called after hotplug events so stale
// paths are re-resolved on the next lookup.
//
// The service itself provides no mutual exclusion: two concurrent
// activations against the same device race inside NetworkManager. The
// Session does not serialize them; callers that need a single in-flight
// operation per device must arrange it themselves (the daemon does, the
// one-shot CLI accepts the race).
type Session struct {
	conn   bus.Conn
	logger *slog.Logger

	mu             sync.Mutex
	deviceByKind   map[DeviceKind]string
	connectionByID map[string]string
}

// NewSession wraps an open bus connection.
func NewSession(conn bus.Conn, logger *slog.Logger) *Session {
	return &Session{
		conn:           conn,
		logger:         logging.NewComponentLogger(logger, "session"),
		deviceByKind:   make(map[DeviceKind]string),
		connectionByID: make(map[string]string),
	}
}

// Close releases the bus connection and everything opened through it.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Invalidate drops all cached resolutions.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceByKind = make(map[DeviceKind]string)
	s.connectionByID = make(map[string]string)
	s.logger.Debug("handle cache invalidated")
}

// Manager returns a handle on the root NetworkManager object.
func (s *Session) Manager() *ManagerHandle {
	return NewManagerHandle(s.conn.Object(BusName, ManagerPath))
}

// Device returns a handle on the device at path.
func (s *Session) Device(path string) *DeviceHandle {
	return NewDeviceHandle(s.conn.Object(BusName, path))
}

// ActiveConnection returns a handle on the active connection at path.
func (s *Session) ActiveConnection(path string) *ActiveConnectionHandle {
	return NewActiveConnectionHandle(s.conn.Object(BusName, path))
}

// Devices lists device object paths in the service's own order.
func (s *Session) Devices(ctx context.Context) ([]string, error) {
	body, err := s.conn.Object(BusName, ManagerPath).Call(ctx, getDevicesMethod)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty GetDevices reply", ErrDecode)
	}
	return asObjectPaths(body[0])
}

// FindDevice resolves the first device of the given kind, in the service's
// enumeration order. Returns ErrNotFound when no device matches.
func (s *Session) FindDevice(ctx context.Context, kind DeviceKind) (*DeviceHandle, error) {
	s.mu.Lock()
	cached, ok := s.deviceByKind[kind]
	s.mu.Unlock()
	if ok {
		return s.Device(cached), nil
	}

	paths, err := s.Devices(ctx)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		device := s.Device(path)
		deviceKind, err := device.Kind(ctx)
		if err != nil {
			return nil, err
		}
		if deviceKind == kind {
			s.mu.Lock()
			s.deviceByKind[kind] = path
			s.mu.Unlock()
			return device, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s device", ErrNotFound, kind)
}

// DevicesOfKind resolves every device of the given kind.
func (s *Session) DevicesOfKind(ctx context.Context, kind DeviceKind) ([]*DeviceHandle, error) {
	paths, err := s.Devices(ctx)
	if err != nil {
		return nil, err
	}
	var matched []*DeviceHandle
	for _, path := range paths {
		device := s.Device(path)
		deviceKind, err := device.Kind(ctx)
		if err != nil {
			return nil, err
		}
		if deviceKind == kind {
			matched = append(matched, device)
		}
	}
	return matched, nil
}

// FindConnection resolves a connection profile by its id, first match in the
// service's order. Returns ErrNotFound when no profile matches.
func (s *Session) FindConnection(ctx context.Context, id string) (bus.Object, error) {
	s.mu.Lock()
	cached, ok := s.connectionByID[id]
	s.mu.Unlock()
	if ok {
		return s.conn.Object(BusName, cached), nil
	}

	body, err := s.conn.Object(BusName, SettingsPath).Call(ctx, listConnectionsMethod)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty ListConnections reply", ErrDecode)
	}
	paths, err := asObjectPaths(body[0])
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		profile := s.conn.Object(BusName, path)
		settingsBody, err := profile.Call(ctx, getSettingsMethod)
		if err != nil {
			return nil, err
		}
		if len(settingsBody) == 0 {
			continue
		}
		if profileID, ok := connectionID(settingsBody[0]); ok && profileID == id {
			s.mu.Lock()
			s.connectionByID[id] = path
			s.mu.Unlock()
			return profile, nil
		}
	}
	return nil, fmt.Errorf("%w: connection %q", ErrNotFound, id)
}

// ActiveConnections lists active-connection object paths.
func (s *Session) ActiveConnections(ctx context.Context) ([]string, error) {
	value, err := s.conn.Object(BusName, ManagerPath).GetProperty(ctx, ManagerInterface, "ActiveConnections")
	if err != nil {
		return nil, err
	}
	return asObjectPaths(value)
}

// FindActiveConnection resolves an active connection by its profile id.
// Actives churn with every activation, so results are never cached.
func (s *Session) FindActiveConnection(ctx context.Context, id string) (*ActiveConnectionHandle, error) {
	paths, err := s.ActiveConnections(ctx)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		active := s.ActiveConnection(path)
		activeID, err := active.ID(ctx)
		if err != nil {
			return nil, err
		}
		if activeID == id {
			return active, nil
		}
	}
	return nil, fmt.Errorf("%w: active connection %q", ErrNotFound, id)
}

// ActivateConnection asks the service to bring the profile up on the device
// and returns the resulting active-connection path. The caller issues this
// request; waiting for convergence is internal/activation's job.
func (s *Session) ActivateConnection(ctx context.Context, connectionPath, devicePath string) (string, error) {
	body, err := s.conn.Object(BusName, ManagerPath).Call(ctx, activateConnectionMethod,
		dbus.ObjectPath(connectionPath), dbus.ObjectPath(devicePath), dbus.ObjectPath("/"))
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", fmt.Errorf("%w: empty ActivateConnection reply", ErrDecode)
	}
	return asObjectPath(body[0])
}

// DeactivateConnection asks the service to take the active connection down.
func (s *Session) DeactivateConnection(ctx context.Context, activePath string) error {
	_, err := s.conn.Object(BusName, ManagerPath).Call(ctx, deactivateConnMethod, dbus.ObjectPath(activePath))
	return err
}

// RequestScan asks a wireless device to rescan.
func (s *Session) RequestScan(ctx context.Context, devicePath string) error {
	_, err := s.conn.Object(BusName, devicePath).Call(ctx, requestScanMethod, map[string]dbus.Variant{})
	return err
}

// AccessPoints reads the scan observations a wireless device currently
// knows about. The service reports LastSeen on the boot clock, which is not
// convertible without reading the boot time, so observations are stamped
// with the read time instead; merge tie-breaks only compare these stamps
// against each other.
func (s *Session) AccessPoints(ctx context.Context, devicePath string) ([]scan.Record, error) {
	body, err := s.conn.Object(BusName, devicePath).Call(ctx, getAllAccessPointsMethod)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty GetAllAccessPoints reply", ErrDecode)
	}
	paths, err := asObjectPaths(body[0])
	if err != nil {
		return nil, err
	}

	now := time.Now()
	records := make([]scan.Record, 0, len(paths))
	for _, path := range paths {
		ap := s.conn.Object(BusName, path)

		ssidValue, err := ap.GetProperty(ctx, AccessPointInterface, "Ssid")
		if err != nil {
			return nil, err
		}
		ssid, err := asBytes(ssidValue)
		if err != nil {
			return nil, fmt.Errorf("access point ssid on %s: %w", path, err)
		}

		freqValue, err := ap.GetProperty(ctx, AccessPointInterface, "Frequency")
		if err != nil {
			return nil, err
		}
		frequency, err := asUint32(freqValue)
		if err != nil {
			return nil, fmt.Errorf("access point frequency on %s: %w", path, err)
		}

		strengthValue, err := ap.GetProperty(ctx, AccessPointInterface, "Strength")
		if err != nil {
			return nil, err
		}
		strength, err := asByte(strengthValue)
		if err != nil {
			return nil, fmt.Errorf("access point strength on %s: %w", path, err)
		}

		records = append(records, scan.Record{
			SSID:      string(ssid),
			Frequency: frequency,
			Strength:  strength,
			LastSeen:  now,
		})
	}
	return records, nil
}

// DeviceInfo is a read-once snapshot of a device for listings.
type DeviceInfo struct {
	Path  string
	Name  string
	Kind  DeviceKind
	State State
}

// ListDevices snapshots every device the service enumerates.
func (s *Session) ListDevices(ctx context.Context) ([]DeviceInfo, error) {
	paths, err := s.Devices(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]DeviceInfo, 0, len(paths))
	for _, path := range paths {
		device := s.Device(path)
		name, err := device.Interface(ctx)
		if err != nil {
			return nil, err
		}
		kind, err := device.Kind(ctx)
		if err != nil {
			return nil, err
		}
		state, err := device.State(ctx)
		if err != nil {
			return nil, err
		}
		infos = append(infos, DeviceInfo{Path: path, Name: name, Kind: kind, State: state})
	}
	return infos, nil
}
