// Package store holds the in-memory mirror of the remote entity graph.
// It is a pure data holder: merging and deleting are structural map
// updates with no I/O. The sync manager is the only writer; derived
// computations read through the accessor methods, which copy out under
// a read lock.
package store

import (
	"sync"

	"zenledger/internal/core"
	"zenledger/internal/zenmoney"
)

// BudgetKey is the composite identity of a budget row. An empty Tag is
// the aggregate cross-category budget. The key must be built the same
// way on every merge or rows would orphan into duplicates.
type BudgetKey struct {
	Tag   string
	Month core.Day
}

// String renders the key in the tag/month form used in logs and
// change events.
func (k BudgetKey) String() string {
	return k.Tag + "/" + string(k.Month)
}

func KeyOf(b core.Budget) BudgetKey {
	k := BudgetKey{Month: b.Date}
	if b.Tag != nil {
		k.Tag = *b.Tag
	}
	return k
}

// Store is the keyed mirror of every entity kind.
type Store struct {
	mu sync.RWMutex

	instruments map[int]core.Instrument
	companies   map[int]core.Company
	users       map[int]core.User
	accounts    map[string]core.Account
	tags        map[string]core.Tag
	merchants   map[string]core.Merchant
	txs         map[string]core.Transaction
	reminders   map[string]core.Reminder
	markers     map[string]core.ReminderMarker
	budgets     map[BudgetKey]core.Budget
}

func New() *Store {
	return &Store{
		instruments: make(map[int]core.Instrument),
		companies:   make(map[int]core.Company),
		users:       make(map[int]core.User),
		accounts:    make(map[string]core.Account),
		tags:        make(map[string]core.Tag),
		merchants:   make(map[string]core.Merchant),
		txs:         make(map[string]core.Transaction),
		reminders:   make(map[string]core.Reminder),
		markers:     make(map[string]core.ReminderMarker),
		budgets:     make(map[BudgetKey]core.Budget),
	}
}

// Apply merges a diff batch: insert-or-overwrite every entity by id,
// last write wins within the batch, then apply deletions. Merges happen
// before deletions so a batch that both updates and deletes an id ends
// deleted.
func (s *Store) Apply(d *zenmoney.Diff) {
	if d == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range d.Instrument {
		s.instruments[e.ID] = e
	}
	for _, e := range d.Company {
		s.companies[e.ID] = e
	}
	for _, e := range d.User {
		s.users[e.ID] = e
	}
	for _, e := range d.Account {
		s.accounts[e.ID] = e
	}
	for _, e := range d.Tag {
		s.tags[e.ID] = e
	}
	for _, e := range d.Merchant {
		s.merchants[e.ID] = e
	}
	for _, e := range d.Transaction {
		s.txs[e.ID] = e
	}
	for _, e := range d.Reminder {
		s.reminders[e.ID] = e
	}
	for _, e := range d.ReminderMarker {
		s.markers[e.ID] = e
	}
	for _, e := range d.Budget {
		s.budgets[KeyOf(e)] = e
	}

	for _, del := range d.Deletion {
		s.remove(del.Object, del.ID)
	}
}

// remove deletes by kind and id; absent ids are a no-op. Budgets cannot
// be structurally deleted through this path (they have no single id);
// the service zeroes them instead.
func (s *Store) remove(kind, id string) {
	switch kind {
	case core.KindAccount:
		delete(s.accounts, id)
	case core.KindTag:
		delete(s.tags, id)
	case core.KindMerchant:
		delete(s.merchants, id)
	case core.KindTransaction:
		delete(s.txs, id)
	case core.KindReminder:
		delete(s.reminders, id)
	case core.KindReminderMarker:
		delete(s.markers, id)
	}
}

func (s *Store) Instruments() []core.Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Instrument, 0, len(s.instruments))
	for _, e := range s.instruments {
		out = append(out, e)
	}
	return out
}

func (s *Store) Accounts() []core.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Account, 0, len(s.accounts))
	for _, e := range s.accounts {
		out = append(out, e)
	}
	return out
}

func (s *Store) Tags() []core.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Tag, 0, len(s.tags))
	for _, e := range s.tags {
		out = append(out, e)
	}
	return out
}

func (s *Store) Merchants() []core.Merchant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Merchant, 0, len(s.merchants))
	for _, e := range s.merchants {
		out = append(out, e)
	}
	return out
}

func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, e := range s.txs {
		out = append(out, e)
	}
	return out
}

func (s *Store) Reminders() []core.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Reminder, 0, len(s.reminders))
	for _, e := range s.reminders {
		out = append(out, e)
	}
	return out
}

func (s *Store) ReminderMarkers() []core.ReminderMarker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.ReminderMarker, 0, len(s.markers))
	for _, e := range s.markers {
		out = append(out, e)
	}
	return out
}

func (s *Store) Budgets() []core.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Budget, 0, len(s.budgets))
	for _, e := range s.budgets {
		out = append(out, e)
	}
	return out
}

func (s *Store) Instrument(id int) (core.Instrument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.instruments[id]
	return e, ok
}

func (s *Store) Company(id int) (core.Company, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.companies[id]
	return e, ok
}

func (s *Store) Account(id string) (core.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.accounts[id]
	return e, ok
}

func (s *Store) Tag(id string) (core.Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.tags[id]
	return e, ok
}

func (s *Store) Merchant(id string) (core.Merchant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.merchants[id]
	return e, ok
}

func (s *Store) Transaction(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.txs[id]
	return e, ok
}

func (s *Store) Reminder(id string) (core.Reminder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.reminders[id]
	return e, ok
}

func (s *Store) ReminderMarker(id string) (core.ReminderMarker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.markers[id]
	return e, ok
}

func (s *Store) Budget(key BudgetKey) (core.Budget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.budgets[key]
	return e, ok
}

// FirstUser returns the session owner. The diff protocol always
// delivers the owning user in the full snapshot; writes need its id.
func (s *Store) FirstUser() (core.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		return u, true
	}
	return core.User{}, false
}

// MarkersOf returns all markers belonging to one reminder.
func (s *Store) MarkersOf(reminderID string) []core.ReminderMarker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.ReminderMarker
	for _, m := range s.markers {
		if m.Reminder == reminderID {
			out = append(out, m)
		}
	}
	return out
}

// TagByTitle resolves a category by exact title, falling back to id
// lookup when the title happens to be a UUID the store knows.
func (s *Store) TagByTitle(title string) (core.Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tags[title]; ok {
		return t, true
	}
	for _, t := range s.tags {
		if t.Title == title {
			return t, true
		}
	}
	return core.Tag{}, false
}
