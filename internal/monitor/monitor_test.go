package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"uplink/internal/nm"
	"uplink/internal/testsupport"
)

func collectEvents(t *testing.T, m *Monitor, n int) []Event {
	t.Helper()
	events := make([]Event, 0, n)
	deadline := time.After(5 * time.Second)
	for len(events) < n {
		select {
		case event, ok := <-m.Events():
			if !ok {
				t.Fatalf("feed closed after %d of %d events", len(events), n)
			}
			events = append(events, event)
		case <-deadline:
			t.Fatalf("timed out after %d of %d events", len(events), n)
		}
	}
	return events
}

func TestMonitorPerObjectOrdering(t *testing.T) {
	m := New(nil, 0)
	defer m.Close()

	src := testsupport.NewFakeChangeSource("/dev/a")
	if err := m.Track(context.Background(), src); err != nil {
		t.Fatalf("Track: %v", err)
	}

	src.EmitState(nm.StateConnecting)
	src.EmitState(nm.StateActivated)

	events := collectEvents(t, m, 2)
	if events[0].State != nm.StateConnecting || events[1].State != nm.StateActivated {
		t.Errorf("events out of order: %s then %s", events[0].State, events[1].State)
	}
	if events[0].Seq >= events[1].Seq {
		t.Errorf("sequence numbers not increasing: %d then %d", events[0].Seq, events[1].Seq)
	}
}

func TestMonitorIsolatesSubscriptionFailure(t *testing.T) {
	m := New(nil, 0)
	defer m.Close()

	healthy := testsupport.NewFakeChangeSource("/dev/a")
	doomed := testsupport.NewFakeChangeSource("/dev/b")
	for _, src := range []*testsupport.FakeChangeSource{healthy, doomed} {
		if err := m.Track(context.Background(), src); err != nil {
			t.Fatalf("Track(%s): %v", src.Path(), err)
		}
	}

	cause := errors.New("remote hung up")
	doomed.Fail(cause)

	lost := collectEvents(t, m, 1)[0]
	if lost.Kind != EventSubscriptionLost {
		t.Fatalf("event = %+v, want subscription-lost", lost)
	}
	if lost.Object != "/dev/b" {
		t.Errorf("lost event tagged %q, want /dev/b", lost.Object)
	}
	if !errors.Is(lost.Err, ErrSubscriptionLost) || !errors.Is(lost.Err, cause) {
		t.Errorf("err = %v, want ErrSubscriptionLost wrapping the cause", lost.Err)
	}

	// The healthy subscription keeps delivering.
	healthy.EmitState(nm.StateActivated)
	event := collectEvents(t, m, 1)[0]
	if event.Object != "/dev/a" || event.State != nm.StateActivated {
		t.Errorf("healthy feed disturbed: %+v", event)
	}

	tracked := m.Tracked()
	if len(tracked) != 1 || tracked[0] != "/dev/a" {
		t.Errorf("tracked = %v, want only /dev/a", tracked)
	}
}

func TestMonitorUntrackLeavesOthersAlone(t *testing.T) {
	m := New(nil, 0)
	defer m.Close()

	a := testsupport.NewFakeChangeSource("/dev/a")
	b := testsupport.NewFakeChangeSource("/dev/b")
	for _, src := range []*testsupport.FakeChangeSource{a, b} {
		if err := m.Track(context.Background(), src); err != nil {
			t.Fatalf("Track(%s): %v", src.Path(), err)
		}
	}

	m.Untrack("/dev/b")
	if !b.Stream().Closed() {
		t.Error("untrack must close the object's subscription")
	}
	if a.Stream().Closed() {
		t.Error("untrack closed an unrelated subscription")
	}

	// No lost event may surface for a deliberate teardown.
	a.EmitState(nm.StateConnecting)
	event := collectEvents(t, m, 1)[0]
	if event.Object != "/dev/a" || event.Kind != EventStateChanged {
		t.Errorf("unexpected event after untrack: %+v", event)
	}
}

func TestMonitorAppearedVanishedPassThrough(t *testing.T) {
	m := New(nil, 0)
	defer m.Close()

	mgr := testsupport.NewFakeChangeSource("/manager")
	if err := m.Track(context.Background(), mgr); err != nil {
		t.Fatalf("Track: %v", err)
	}

	mgr.Stream().Emit(nm.Change{Kind: nm.ChangeAppeared, Object: "/dev/new"})
	mgr.Stream().Emit(nm.Change{Kind: nm.ChangeVanished, Object: "/dev/old"})

	events := collectEvents(t, m, 2)
	if events[0].Kind != EventAppeared || events[0].Object != "/dev/new" {
		t.Errorf("first event = %+v, want appeared /dev/new", events[0])
	}
	if events[0].Source != "/manager" {
		t.Errorf("source = %q, want /manager", events[0].Source)
	}
	if events[1].Kind != EventVanished || events[1].Object != "/dev/old" {
		t.Errorf("second event = %+v, want vanished /dev/old", events[1])
	}
}

func TestMonitorTrackErrors(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		m := New(nil, 0)
		defer m.Close()

		src := testsupport.NewFakeChangeSource("/dev/a")
		if err := m.Track(context.Background(), src); err != nil {
			t.Fatalf("Track: %v", err)
		}
		if err := m.Track(context.Background(), testsupport.NewFakeChangeSource("/dev/a")); !errors.Is(err, ErrAlreadyTracked) {
			t.Errorf("err = %v, want ErrAlreadyTracked", err)
		}
	})

	t.Run("subscribe failure", func(t *testing.T) {
		m := New(nil, 0)
		defer m.Close()

		transportErr := errors.New("bus unavailable")
		src := testsupport.NewFakeChangeSource("/dev/a")
		src.SubscribeErr = transportErr
		if err := m.Track(context.Background(), src); !errors.Is(err, transportErr) {
			t.Errorf("err = %v, want the transport error", err)
		}
	})

	t.Run("after close", func(t *testing.T) {
		m := New(nil, 0)
		m.Close()
		if err := m.Track(context.Background(), testsupport.NewFakeChangeSource("/dev/a")); !errors.Is(err, ErrClosed) {
			t.Errorf("err = %v, want ErrClosed", err)
		}
	})
}

func TestMonitorCloseTearsDownEverything(t *testing.T) {
	m := New(nil, 0)

	a := testsupport.NewFakeChangeSource("/dev/a")
	b := testsupport.NewFakeChangeSource("/dev/b")
	for _, src := range []*testsupport.FakeChangeSource{a, b} {
		if err := m.Track(context.Background(), src); err != nil {
			t.Fatalf("Track(%s): %v", src.Path(), err)
		}
	}

	m.Close()
	m.Close() // idempotent

	if !a.Stream().Closed() || !b.Stream().Closed() {
		t.Error("close must release every subscription")
	}

	select {
	case _, ok := <-m.Events():
		if ok {
			t.Error("no events expected after close")
		}
	case <-time.After(time.Second):
		t.Error("feed not closed after Close")
	}
}

func TestMonitorID(t *testing.T) {
	a, b := New(nil, 0), New(nil, 0)
	defer a.Close()
	defer b.Close()
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("feed ids must be unique and non-empty: %q vs %q", a.ID(), b.ID())
	}
}
