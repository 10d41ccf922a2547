package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"uplink/internal/logging"
	"uplink/internal/nm"
)

// Monitor owns a dynamic set of tracked objects and a single merged event
// feed. Construct with New, add sources with Track, consume Events until it
// closes, and Close exactly once; Close is the only way the feed ends from
// the consumer side and it tears down every subscription.
type Monitor struct {
	id     string
	logger *slog.Logger
	events chan Event

	ctx    context.Context
	cancel context.CancelFunc

	seq atomic.Uint64
	wg  sync.WaitGroup

	mu   sync.Mutex
	subs map[string]*subscription

	closeOnce sync.Once
}

type subscription struct {
	path   string
	stream nm.ChangeStream
	// removed distinguishes a deliberate Untrack/Close teardown from a
	// stream that died on its own.
	removed atomic.Bool
}

// New constructs an empty monitor. buffer sizes the merged feed; consumers
// slower than the buffer apply backpressure to the pumps, never lose events.
func New(logger *slog.Logger, buffer int) *Monitor {
	if buffer <= 0 {
		buffer = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		id:     uuid.NewString(),
		logger: logging.NewComponentLogger(logger, "monitor"),
		events: make(chan Event, buffer),
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[string]*subscription),
	}
}

// ID identifies this feed instance in logs.
func (m *Monitor) ID() string {
	return m.id
}

// Events returns the merged feed. It closes only after Close.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Tracked lists the currently tracked object paths.
func (m *Monitor) Tracked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.subs))
	for path := range m.subs {
		paths = append(paths, path)
	}
	return paths
}

// Track opens a subscription for src and merges it into the feed. Existing
// subscriptions are not disturbed. ctx bounds only the subscribe call
// itself; the subscription's lifetime belongs to the monitor.
func (m *Monitor) Track(ctx context.Context, src nm.ChangeSource) error {
	if m.ctx.Err() != nil {
		return ErrClosed
	}

	path := src.Path()
	m.mu.Lock()
	if _, exists := m.subs[path]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyTracked, path)
	}
	m.mu.Unlock()

	stream, err := src.SubscribeChanges(ctx)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", path, err)
	}

	sub := &subscription{path: path, stream: stream}
	m.mu.Lock()
	if m.ctx.Err() != nil || m.subs[path] != nil {
		m.mu.Unlock()
		stream.Close()
		if m.ctx.Err() != nil {
			return ErrClosed
		}
		return fmt.Errorf("%w: %s", ErrAlreadyTracked, path)
	}
	m.subs[path] = sub
	m.mu.Unlock()

	m.wg.Add(1)
	go m.pump(sub)

	m.logger.Debug("tracking object", logging.String(logging.FieldObjectPath, path))
	return nil
}

// Untrack tears down one object's subscription without disturbing the rest.
// Unknown paths are ignored.
func (m *Monitor) Untrack(path string) {
	m.mu.Lock()
	sub, ok := m.subs[path]
	if ok {
		delete(m.subs, path)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	sub.removed.Store(true)
	sub.stream.Close()
	m.logger.Debug("untracked object", logging.String(logging.FieldObjectPath, path))
}

// Close tears down every subscription and closes the feed once all pumps
// have drained. Idempotent.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() {
		m.cancel()
		m.mu.Lock()
		for _, sub := range m.subs {
			sub.removed.Store(true)
			sub.stream.Close()
		}
		m.subs = make(map[string]*subscription)
		m.mu.Unlock()

		m.wg.Wait()
		close(m.events)
	})
}

// pump forwards one subscription's changes into the merged feed. One pump
// per source keeps per-object emission order intact.
func (m *Monitor) pump(sub *subscription) {
	defer m.wg.Done()

	for change := range sub.stream.Changes() {
		m.emit(Event{
			Object: change.Object,
			Source: sub.path,
			Kind:   fromChangeKind(change.Kind),
			State:  change.State,
		})
	}

	// The stream ended. A deliberate teardown (Untrack or Close) is silent;
	// anything else is surfaced, tagged with the object's identity, while
	// the other subscriptions keep running.
	if sub.removed.Load() || m.ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	if m.subs[sub.path] == sub {
		delete(m.subs, sub.path)
	}
	m.mu.Unlock()

	cause := sub.stream.Err()
	err := fmt.Errorf("%w: %s", ErrSubscriptionLost, sub.path)
	if cause != nil {
		err = fmt.Errorf("%w: %s: %w", ErrSubscriptionLost, sub.path, cause)
	}
	logging.WarnWithContext(m.logger, "subscription ended unexpectedly", "subscription_lost",
		logging.String(logging.FieldObjectPath, sub.path),
		logging.Error(cause),
		logging.String(logging.FieldImpact, "events from this object stop until it is tracked again"),
		logging.String(logging.FieldErrorHint, "re-track the object to resubscribe"),
	)
	m.emit(Event{
		Object: sub.path,
		Source: sub.path,
		Kind:   EventSubscriptionLost,
		Err:    err,
	})
}

func (m *Monitor) emit(event Event) {
	event.Seq = m.seq.Add(1)
	event.Time = time.Now()
	select {
	case m.events <- event:
	case <-m.ctx.Done():
	}
}
