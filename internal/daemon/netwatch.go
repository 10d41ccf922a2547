package daemon

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"uplink/internal/logging"
)

// netWatcher listens for udev netlink events on the net subsystem so the
// daemon notices hotplugged interfaces (USB adapters, virtual devices)
// without polling the bus.
type netWatcher struct {
	logger  *slog.Logger
	handler func(ctx context.Context, action, ifname string)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newNetWatcher(logger *slog.Logger, handler func(ctx context.Context, action, ifname string)) *netWatcher {
	return &netWatcher{
		logger:  logging.NewComponentLogger(logger, "net-watcher"),
		handler: handler,
	}
}

// Start begins listening for udev netlink events. Failure to open the
// netlink socket is non-fatal; hotplug then goes unnoticed until restart.
func (w *netWatcher) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		w.logger.Warn("failed to connect to netlink socket; hotplugged interfaces will not be noticed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "interface hotplug detection unavailable"),
		)
		return nil
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true

	quit := w.quit
	go w.watchLoop(ctx, quit)

	w.logger.Info("net watcher started",
		logging.String(logging.FieldEventType, "net_watcher_started"),
	)

	return nil
}

// Stop shuts down the watcher.
func (w *netWatcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}

	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}

	w.running = false

	w.logger.Info("net watcher stopped",
		logging.String(logging.FieldEventType, "net_watcher_stopped"),
	)
}

// Running reports whether the watcher is active.
func (w *netWatcher) Running() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *netWatcher) watchLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	matcher := buildNetMatcher()

	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, matcher)

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			w.handleEvent(ctx, uevent)
		case err := <-errs:
			w.logger.Warn("net watcher error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "net_watcher_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "interface hotplug detection may be affected"),
			)
		}
	}
}

// buildNetMatcher matches SUBSYSTEM=net, ACTION=add|remove.
func buildNetMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "net",
		},
	})
	return rules
}

func (w *netWatcher) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	ifname := extractInterfaceName(uevent)
	if ifname == "" {
		w.logger.Debug("ignoring event without interface name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	w.logger.Info("interface hotplug detected",
		logging.String(logging.FieldEventType, "net_hotplug"),
		logging.String(logging.FieldDevice, ifname),
		logging.String("action", string(uevent.Action)),
	)

	if w.handler != nil {
		w.handler(ctx, string(uevent.Action), ifname)
	}
}

// extractInterfaceName gets the interface name from a uevent.
func extractInterfaceName(uevent netlink.UEvent) string {
	if ifname := uevent.Env["INTERFACE"]; ifname != "" {
		return ifname
	}

	// Fall back to the last DEVPATH element (e.g. /devices/.../net/wlan0).
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}

	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
