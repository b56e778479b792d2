package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/gatehouse/internal/pubsub"
)

// Tracker applies session-change events to a Store and fans them out to
// watchers. It is the single writer of the Store.
type Tracker struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	// mu serializes the version check and the write in apply, and guards
	// the watcher table.
	mu       sync.Mutex
	watchers map[string]map[uint64]chan State
	nextID   uint64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a Tracker over store. Stored states live for ttl.
func NewTracker(store Store, ttl time.Duration, opts ...Option) *Tracker {
	t := &Tracker{
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		logger:   slog.Default().With("component", "session_tracker"),
		watchers: make(map[string]map[uint64]chan State),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start subscribes the tracker to session-change events on sub.
func (t *Tracker) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, Topic, t.handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", Topic, err)
	}
	return nil
}

func (t *Tracker) handle(ctx context.Context, msg pubsub.Message) error {
	var st State
	if err := json.Unmarshal(msg.Payload, &st); err != nil {
		return fmt.Errorf("failed to decode session event: %w", err)
	}
	if st.SessionID == "" {
		st.SessionID = msg.Key
	}
	_, err := t.Apply(ctx, st)
	return err
}

// Apply stores st unless a state with the same or a newer version is
// already stored, or st.Supersedes names a version other than the stored
// one, and notifies watchers of the session. It reports whether
// st was applied.
func (t *Tracker) Apply(ctx context.Context, st State) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok, err := t.store.Get(ctx, st.SessionID)
	if err != nil {
		return false, err
	}
	if ok && cur.Version >= st.Version {
		t.logger.Debug("Dropping stale session event",
			"sid", st.SessionID, "version", st.Version, "stored_version", cur.Version)
		return false, nil
	}
	if st.Supersedes != 0 && (!ok || cur.Version != st.Supersedes) {
		t.logger.Debug("Dropping conditional session event for a changed state",
			"sid", st.SessionID, "reason", st.Reason, "supersedes", st.Supersedes)
		return false, nil
	}

	// Expired states stay stored until ttl so readers can tell expiry from
	// absence.
	if err := t.store.Put(ctx, st, t.ttl); err != nil {
		return false, err
	}

	for _, ch := range t.watchers[st.SessionID] {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
	return true, nil
}

// Current returns a snapshot of the session. A missing or expired state is
// reported as absent; the stored version is kept so callers can publish a
// newer event.
func (t *Tracker) Current(ctx context.Context, sid string) (State, error) {
	st, ok, err := t.store.Get(ctx, sid)
	if err != nil {
		return Absent(sid), err
	}
	if !ok {
		return Absent(sid), nil
	}
	if !st.Active(t.now()) {
		st.Present = false
	}
	return st, nil
}

// Watch returns a channel receiving every state applied to sid from now on.
// Only the latest undelivered state is kept. The returned func stops the
// watch.
func (t *Tracker) Watch(sid string) (<-chan State, func()) {
	ch := make(chan State, 1)

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	if t.watchers[sid] == nil {
		t.watchers[sid] = make(map[uint64]chan State)
	}
	t.watchers[sid][id] = ch
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.watchers[sid], id)
			if len(t.watchers[sid]) == 0 {
				delete(t.watchers, sid)
			}
			t.mu.Unlock()
		})
	}
}

// Await blocks until the session's presence equals present, and returns
// that state. A notification applied before Await was called is observed
// through the store. It returns ctx.Err() with the last seen state when ctx
// ends first.
func (t *Tracker) Await(ctx context.Context, sid string, present bool) (State, error) {
	ch, stop := t.Watch(sid)
	defer stop()

	cur, err := t.Current(ctx, sid)
	if err != nil {
		return cur, err
	}
	if cur.Present == present {
		return cur, nil
	}

	for {
		select {
		case st := <-ch:
			cur = st
			if st.Active(t.now()) == present {
				if !present {
					cur.Present = false
				}
				return cur, nil
			}
		case <-ctx.Done():
			return cur, ctx.Err()
		}
	}
}
