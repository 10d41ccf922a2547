package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"uplink/internal/activation"
	"uplink/internal/config"
	"uplink/internal/history"
	"uplink/internal/logging"
	"uplink/internal/monitor"
	"uplink/internal/nm"
	"uplink/internal/scan"
)

var (
	// ErrAlreadyRunning reports a second Start on a running daemon.
	ErrAlreadyRunning = errors.New("daemon already running")
	// ErrInstanceHeld reports that another process holds the daemon lock.
	ErrInstanceHeld = errors.New("another uplinkd instance is already running")
	// ErrHistoryDisabled reports a history query with persistence turned off.
	ErrHistoryDisabled = errors.New("history is disabled")
)

const pruneInterval = 12 * time.Hour

// Daemon coordinates tracking, persistence, and scanning, and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	session *nm.Session
	store   *history.Store // nil when history is disabled

	runID    string
	lockPath string
	lock     *flock.Flock
	feed     *monitor.Monitor
	watcher  *netWatcher

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	deviceMu    sync.Mutex
	deviceLocks map[string]*sync.Mutex
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	RunID          string
	PID            int
	StartedAt      time.Time
	LockPath       string
	HistoryDBPath  string
	TrackedObjects []string
}

// New constructs a daemon. The store may be nil when history is disabled.
func New(cfg *config.Config, session *nm.Session, store *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || session == nil {
		return nil, errors.New("daemon requires config and session")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	runID := uuid.NewString()
	return &Daemon{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "daemon").With(logging.String(logging.FieldRunID, runID)),
		session:     session,
		store:       store,
		runID:       runID,
		lockPath:    cfg.LockPath(),
		lock:        flock.New(cfg.LockPath()),
		deviceLocks: make(map[string]*sync.Mutex),
	}, nil
}

// RunID returns this daemon run's identifier.
func (d *Daemon) RunID() string {
	return d.runID
}

// Start acquires the instance lock and begins tracking.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return ErrAlreadyRunning
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrInstanceHeld
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.feed = monitor.New(d.logger, d.cfg.Monitor.EventBuffer)
	d.watcher = newNetWatcher(d.logger, d.handleHotplug)

	if err := d.feed.Track(d.ctx, d.session.Manager()); err != nil {
		d.teardown()
		return fmt.Errorf("track manager: %w", err)
	}
	if err := d.trackAllDevices(d.ctx); err != nil {
		d.teardown()
		return fmt.Errorf("track devices: %w", err)
	}

	d.wg.Add(1)
	go d.eventLoop()

	if d.cfg.ScanInterval() > 0 {
		d.wg.Add(1)
		go d.scanLoop()
	}
	if d.store != nil && d.cfg.History.RetentionDays > 0 {
		d.wg.Add(1)
		go d.pruneLoop()
	}

	_ = d.watcher.Start(d.ctx)

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("uplinkd started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.Int("tracked", len(d.feed.Tracked())))
	return nil
}

// Stop ends tracking and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.watcher.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.feed.Close()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("uplinkd stopped",
		logging.String(logging.FieldEventType, "daemon_stop"))
}

func (d *Daemon) teardown() {
	if d.feed != nil {
		d.feed.Close()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	_ = d.lock.Unlock()
}

// Close stops the daemon and releases the observation store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:  d.running.Load(),
		RunID:    d.runID,
		PID:      os.Getpid(),
		LockPath: d.lockPath,
	}
	if d.store != nil {
		status.HistoryDBPath = d.store.Path()
	}
	if status.Running {
		status.StartedAt = d.startedAt
		status.TrackedObjects = d.feed.Tracked()
	}
	return status
}

// RecentNetworks returns the merged view of networks observed inside the
// retention window.
func (d *Daemon) RecentNetworks(ctx context.Context) ([]scan.Record, error) {
	if d.store == nil {
		return nil, ErrHistoryDisabled
	}
	since := time.Now().AddDate(0, 0, -d.cfg.History.RetentionDays)
	return d.store.RecentNetworks(ctx, since)
}

// RecentEvents returns the newest recorded change events.
func (d *Daemon) RecentEvents(ctx context.Context, limit int) ([]history.EventRow, error) {
	if d.store == nil {
		return nil, ErrHistoryDisabled
	}
	return d.store.RecentEvents(ctx, limit)
}

// Activate brings a connection profile up on the first device of the given
// kind and waits for it to converge. Concurrent activations against one
// device are serialized here; NetworkManager itself would let them race.
func (d *Daemon) Activate(ctx context.Context, connectionID string, kind nm.DeviceKind) (activation.Outcome, error) {
	device, err := d.session.FindDevice(ctx, kind)
	if err != nil {
		return activation.Outcome{}, err
	}

	lock := d.deviceLock(device.Path())
	lock.Lock()
	defer lock.Unlock()

	profile, err := d.session.FindConnection(ctx, connectionID)
	if err != nil {
		return activation.Outcome{}, err
	}
	if _, err := d.session.ActivateConnection(ctx, profile.Path(), device.Path()); err != nil {
		return activation.Outcome{}, fmt.Errorf("activate %q: %w", connectionID, err)
	}

	outcome := activation.WaitForState(ctx, device, activation.ReachState(nm.StateActivated), d.cfg.ActivateTimeout())
	d.logger.Info("activation finished",
		logging.String(logging.FieldEventType, "activation_finished"),
		logging.String(logging.FieldConnectionID, connectionID),
		logging.String(logging.FieldObjectPath, device.Path()),
		logging.String(logging.FieldState, outcome.Last.String()))
	return outcome, nil
}

// Deactivate takes an active connection down and waits for teardown.
func (d *Daemon) Deactivate(ctx context.Context, connectionID string) (activation.Outcome, error) {
	active, err := d.session.FindActiveConnection(ctx, connectionID)
	if err != nil {
		return activation.Outcome{}, err
	}
	if err := d.session.DeactivateConnection(ctx, active.Path()); err != nil {
		return activation.Outcome{}, fmt.Errorf("deactivate %q: %w", connectionID, err)
	}
	return activation.WaitForState(ctx, active, activation.ReachState(nm.StateDisconnected), d.cfg.DeactivateTimeout()), nil
}

// ScanNow performs one wireless scan pass across all wifi devices and
// records the merged result.
func (d *Daemon) ScanNow(ctx context.Context) ([]scan.Record, error) {
	devices, err := d.session.DevicesOfKind(ctx, nm.KindWifi)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, nil
	}

	var observations []scan.Record
	for _, device := range devices {
		if err := d.session.RequestScan(ctx, device.Path()); err != nil {
			// The service throttles back-to-back scans; stale results are
			// still worth reading.
			d.logger.Debug("scan request rejected",
				logging.String(logging.FieldObjectPath, device.Path()),
				logging.Error(err))
		}
		records, err := d.session.AccessPoints(ctx, device.Path())
		if err != nil {
			return nil, fmt.Errorf("read access points on %s: %w", device.Path(), err)
		}
		observations = append(observations, records...)
	}

	merged := scan.Merge(observations)
	if d.store != nil {
		if err := d.store.RecordScan(ctx, d.runID, merged); err != nil {
			return nil, fmt.Errorf("record scan: %w", err)
		}
	}
	d.logger.Debug("scan pass complete",
		logging.Int("networks", len(merged)),
		logging.Int("observations", len(observations)))
	return merged, nil
}

func (d *Daemon) deviceLock(path string) *sync.Mutex {
	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()
	lock, ok := d.deviceLocks[path]
	if !ok {
		lock = &sync.Mutex{}
		d.deviceLocks[path] = lock
	}
	return lock
}

func (d *Daemon) trackAllDevices(ctx context.Context) error {
	paths, err := d.session.Devices(ctx)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := d.trackDevice(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func (d *Daemon) trackDevice(ctx context.Context, path string) error {
	err := d.feed.Track(ctx, d.session.Device(path))
	if err != nil && !errors.Is(err, monitor.ErrAlreadyTracked) {
		return err
	}
	return nil
}

// resyncDevices re-enumerates after hotplug or a list change and tracks
// anything new. Vanished devices announce themselves through the feed.
func (d *Daemon) resyncDevices(ctx context.Context) {
	if err := d.trackAllDevices(ctx); err != nil {
		logging.WarnWithContext(d.logger, "device resync failed", "device_resync_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that NetworkManager is reachable on the bus"),
			logging.String(logging.FieldImpact, "new devices are not tracked until the next change"))
	}
}

func (d *Daemon) handleHotplug(ctx context.Context, action, ifname string) {
	d.session.Invalidate()
	d.resyncDevices(ctx)
}

func (d *Daemon) eventLoop() {
	defer d.wg.Done()
	for event := range d.feed.Events() {
		d.handleEvent(event)
	}
}

func (d *Daemon) handleEvent(event monitor.Event) {
	switch event.Kind {
	case monitor.EventAppeared:
		d.logger.Info("device appeared",
			logging.String(logging.FieldEventType, "device_appeared"),
			logging.String(logging.FieldObjectPath, event.Object))
		if err := d.trackDevice(d.ctx, event.Object); err != nil {
			logging.WarnWithContext(d.logger, "failed to track new device", "device_track_failed",
				logging.String(logging.FieldObjectPath, event.Object),
				logging.Error(err))
		}
	case monitor.EventVanished:
		d.logger.Info("device vanished",
			logging.String(logging.FieldEventType, "device_vanished"),
			logging.String(logging.FieldObjectPath, event.Object))
		d.feed.Untrack(event.Object)
		d.session.Invalidate()
	case monitor.EventListChanged:
		d.resyncDevices(d.ctx)
	case monitor.EventSubscriptionLost:
		logging.WarnWithContext(d.logger, "subscription lost", "subscription_lost",
			logging.String(logging.FieldObjectPath, event.Object),
			logging.Error(event.Err),
			logging.String(logging.FieldImpact, "events from this object no longer arrive"))
	default:
		d.logger.Info("state changed",
			logging.String(logging.FieldEventType, "state_changed"),
			logging.String(logging.FieldObjectPath, event.Object),
			logging.String(logging.FieldState, event.State.String()))
	}

	if d.store != nil {
		if err := d.store.RecordEvent(d.ctx, d.runID, event); err != nil {
			d.logger.Warn("failed to record event", logging.Error(err))
		}
	}
}

func (d *Daemon) scanLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.ScanInterval())
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.ScanNow(d.ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.WarnWithContext(d.logger, "scan pass failed", "scan_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "network history misses this interval"))
			}
		}
	}
}

func (d *Daemon) pruneLoop() {
	defer d.wg.Done()
	d.pruneOnce()
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.pruneOnce()
		}
	}
}

func (d *Daemon) pruneOnce() {
	cutoff := time.Now().AddDate(0, 0, -d.cfg.History.RetentionDays)
	if err := d.store.Prune(d.ctx, cutoff); err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Warn("history prune failed", logging.Error(err))
	}
}
