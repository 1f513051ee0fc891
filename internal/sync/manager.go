// Package sync owns the diff cursor and serializes every remote round
// trip. It is the only writer of the entity store: reads anywhere else
// see either the state before a round trip or after it, never between.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"golang.org/x/sync/singleflight"

	"zenledger/internal/core"
	"zenledger/internal/store"
	"zenledger/internal/zenmoney"
)

// DefaultStaleness is how long a synchronized snapshot is served
// without a new round trip.
const DefaultStaleness = 5 * time.Minute

// ErrEmptyBatch rejects a write-through with nothing to commit.
var ErrEmptyBatch = errors.New("sync: write batch is empty")

// Event describes one entity changed by a round trip, for downstream
// consumers such as the audit trail.
type Event struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Stamp int64  `json:"stamp"`
}

// Publisher receives one change event per entity committed by a
// write-through. Plain synchronization publishes nothing: the queue
// carries changes made through here, not the remote history replayed
// by a cold start. Publishing is best effort: a failed publish never
// fails the round trip.
type Publisher interface {
	PublishChange(ctx context.Context, e Event) error
}

// SnapshotStore persists merged state so a restart can warm-start
// instead of pulling the full snapshot again.
type SnapshotStore interface {
	ApplyDiff(ctx context.Context, d *zenmoney.Diff) error
	Cursor(ctx context.Context) (int64, error)
	LoadAll(ctx context.Context) (*zenmoney.Diff, error)
}

// Manager drives synchronization against the remote ledger. The zero
// value is not usable; construct with New.
type Manager struct {
	gateway   zenmoney.Exchanger
	store     *store.Store
	snapshots SnapshotStore
	publisher Publisher
	staleness time.Duration
	logger    *slog.Logger
	now       func() time.Time

	// mu serializes whole round trips. stateMu guards the cursor and
	// the last-sync stamp so freshness checks never wait on the
	// network.
	mu      stdsync.Mutex
	stateMu stdsync.RWMutex
	flight  singleflight.Group

	cursor   int64
	lastSync time.Time
}

type Option func(*Manager)

func WithSnapshotStore(s SnapshotStore) Option {
	return func(m *Manager) { m.snapshots = s }
}

func WithPublisher(p Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

func WithStaleness(d time.Duration) Option {
	return func(m *Manager) { m.staleness = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(gateway zenmoney.Exchanger, st *store.Store, opts ...Option) *Manager {
	m := &Manager{
		gateway:   gateway,
		store:     st,
		staleness: DefaultStaleness,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store exposes the entity store this manager feeds.
func (m *Manager) Store() *store.Store { return m.store }

// Cursor returns the last applied server timestamp. Zero means no
// round trip has completed yet.
func (m *Manager) Cursor() int64 {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.cursor
}

// Restore warm-starts the in-memory store from the snapshot store, if
// one is configured. The snapshot is treated as stale: the next
// EnsureFresh still performs a round trip, it just transfers less.
func (m *Manager) Restore(ctx context.Context) error {
	if m.snapshots == nil {
		return nil
	}
	d, err := m.snapshots.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("sync: load snapshot: %w", err)
	}
	cursor, err := m.snapshots.Cursor(ctx)
	if err != nil {
		return fmt.Errorf("sync: load cursor: %w", err)
	}
	m.store.Apply(d)
	m.stateMu.Lock()
	m.cursor = cursor
	m.stateMu.Unlock()
	m.logger.Info("warm start from snapshot", "cursor", cursor)
	return nil
}

// EnsureFresh guarantees the store reflects a round trip no older than
// the staleness window. Concurrent callers collapse into one round
// trip and all observe its outcome.
func (m *Manager) EnsureFresh(ctx context.Context) error {
	if m.fresh() {
		return nil
	}
	_, err, _ := m.flight.Do("sync", func() (any, error) {
		if m.fresh() {
			return nil, nil
		}
		return nil, m.exchange(ctx, nil)
	})
	return err
}

// Synchronize forces a round trip regardless of staleness.
func (m *Manager) Synchronize(ctx context.Context) error {
	return m.exchange(ctx, nil)
}

// WriteThrough commits a batch and merges the response. It waits for
// any in-flight round trip first, so the write is always issued
// against the most recently synchronized cursor.
func (m *Manager) WriteThrough(ctx context.Context, changes *zenmoney.Changes) error {
	if changes.IsEmpty() {
		return ErrEmptyBatch
	}
	return m.exchange(ctx, changes)
}

func (m *Manager) fresh() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.cursor != 0 && m.now().Sub(m.lastSync) < m.staleness
}

// exchange is the single primitive under both synchronization and
// write-through. On any failure the cursor and the store are left
// untouched, so the caller can retry with the same cursor.
func (m *Manager) exchange(ctx context.Context, changes *zenmoney.Changes) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stateMu.RLock()
	cursor := m.cursor
	m.stateMu.RUnlock()

	req := zenmoney.NewRequest(cursor, m.now().Unix(), changes)
	diff, err := m.gateway.Exchange(ctx, req)
	if err != nil {
		return fmt.Errorf("sync: exchange at cursor %d: %w", cursor, err)
	}

	m.store.Apply(diff)
	m.stateMu.Lock()
	m.cursor = diff.ServerTimestamp
	m.lastSync = m.now()
	m.stateMu.Unlock()

	if m.snapshots != nil {
		if err := m.snapshots.ApplyDiff(ctx, diff); err != nil {
			m.logger.Warn("snapshot persist failed", "error", err)
		}
	}
	if changes != nil {
		m.publish(ctx, changes, diff.ServerTimestamp)
	}

	m.logger.Debug("diff applied",
		"cursor", diff.ServerTimestamp,
		"entities", entityCount(diff),
		"deletions", len(diff.Deletion),
	)
	return nil
}

func (m *Manager) publish(ctx context.Context, c *zenmoney.Changes, stamp int64) {
	if m.publisher == nil {
		return
	}
	for _, e := range events(c, stamp) {
		if err := m.publisher.PublishChange(ctx, e); err != nil {
			m.logger.Warn("change publish failed", "kind", e.Kind, "id", e.ID, "error", err)
			return
		}
	}
}

func events(c *zenmoney.Changes, stamp int64) []Event {
	var out []Event
	for _, a := range c.Account {
		out = append(out, Event{core.KindAccount, a.ID, stamp})
	}
	for _, t := range c.Transaction {
		out = append(out, Event{core.KindTransaction, t.ID, stamp})
	}
	for _, r := range c.Reminder {
		out = append(out, Event{core.KindReminder, r.ID, stamp})
	}
	for _, mk := range c.ReminderMarker {
		out = append(out, Event{core.KindReminderMarker, mk.ID, stamp})
	}
	for _, b := range c.Budget {
		out = append(out, Event{core.KindBudget, store.KeyOf(b).String(), stamp})
	}
	for _, del := range c.Deletion {
		out = append(out, Event{del.Object, del.ID, stamp})
	}
	return out
}

func entityCount(d *zenmoney.Diff) int {
	return len(d.Instrument) + len(d.Company) + len(d.User) + len(d.Account) +
		len(d.Tag) + len(d.Merchant) + len(d.Transaction) +
		len(d.Reminder) + len(d.ReminderMarker) + len(d.Budget)
}
