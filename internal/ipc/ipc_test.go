package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"uplink/internal/config"
	"uplink/internal/daemon"
	"uplink/internal/history"
	"uplink/internal/ipc"
	"uplink/internal/logging"
	"uplink/internal/monitor"
	"uplink/internal/nm"
	"uplink/internal/scan"
	"uplink/internal/testsupport"
)

func newServerAndClient(t *testing.T, store *history.Store) (*daemon.Daemon, *ipc.Client) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(dir, "state")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Monitor.ScanInterval = 0

	conn := testsupport.NewFakeConn()
	mgr := conn.AddObject(nm.ManagerPath)
	mgr.HandleCall(nm.ManagerInterface+".GetDevices", func(args ...any) ([]any, error) {
		return []any{[]string{}}, nil
	})

	session := nm.NewSession(conn, logging.NewNop())
	d, err := daemon.New(&cfg, session, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	socket := filepath.Join(dir, "uplinkd.sock")
	server, err := ipc.NewServer(context.Background(), socket, d, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return d, client
}

func TestStatusRoundTrip(t *testing.T) {
	d, client := newServerAndClient(t, nil)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Error("status must report running")
	}
	if status.RunID != d.RunID() {
		t.Errorf("run id = %q, want %q", status.RunID, d.RunID())
	}
	if status.PID <= 0 {
		t.Errorf("pid = %d", status.PID)
	}
	found := false
	for _, path := range status.TrackedObjects {
		if path == nm.ManagerPath {
			found = true
		}
	}
	if !found {
		t.Errorf("tracked objects %v must include the manager", status.TrackedObjects)
	}
}

func TestNetworksRoundTrip(t *testing.T) {
	store, err := history.OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	d, client := newServerAndClient(t, store)

	now := time.Now().UTC().Truncate(time.Millisecond)
	records := []scan.Record{
		{SSID: "corp", Frequency: 5180, Strength: 60, LastSeen: now},
		{SSID: "", Frequency: 2412, Strength: 30, LastSeen: now},
	}
	if err := store.RecordScan(context.Background(), d.RunID(), records); err != nil {
		t.Fatalf("RecordScan: %v", err)
	}

	resp, err := client.Networks()
	if err != nil {
		t.Fatalf("Networks: %v", err)
	}
	if len(resp.Networks) != 2 {
		t.Fatalf("got %d networks", len(resp.Networks))
	}
	if resp.Networks[0].SSID != "corp" || resp.Networks[0].Band != "5GHz" {
		t.Errorf("networks[0] = %+v", resp.Networks[0])
	}
	if !resp.Networks[1].Hidden {
		t.Errorf("networks[1] = %+v, want hidden", resp.Networks[1])
	}
}

func TestEventsRoundTrip(t *testing.T) {
	store, err := history.OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	d, client := newServerAndClient(t, store)

	event := monitor.Event{
		Seq:    7,
		Object: "/dev/wlan0",
		Source: "/dev/wlan0",
		Kind:   monitor.EventStateChanged,
		State:  nm.StateActivated,
		Time:   time.Now().UTC(),
	}
	if err := store.RecordEvent(context.Background(), d.RunID(), event); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	resp, err := client.Events(10)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(resp.Events) == 0 {
		t.Fatal("no events returned")
	}
	got := resp.Events[0]
	if got.Seq != 7 || got.Object != "/dev/wlan0" || got.Kind != "state-changed" || got.State != "activated" {
		t.Errorf("event = %+v", got)
	}
}

func TestNetworksWithoutHistory(t *testing.T) {
	_, client := newServerAndClient(t, nil)

	_, err := client.Networks()
	if err == nil {
		t.Fatal("expected an error with history disabled")
	}
	if !strings.Contains(err.Error(), "history is disabled") {
		t.Errorf("err = %v", err)
	}
}
