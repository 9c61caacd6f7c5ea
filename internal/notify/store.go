// Package notify keeps the admin's live notification log and feeds it from the backend's
// real-time channel.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/abhinandan-events/site-bff-go/internal/metrics"
	"github.com/abhinandan-events/site-bff-go/internal/model"
)

// DefaultLimit bounds the log when no limit is given.
const DefaultLimit = 200

// Snapshot is a point-in-time copy of the log, newest first.
type Snapshot struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unreadCount"`
}

// Store is a bounded, newest-first notification log. Subscribers receive a snapshot after
// every change, in the order the changes happened, outside the store's lock.
type Store struct {
	dispatchMu sync.Mutex // serializes mutation and delivery so subscribers see changes in order

	mu      sync.Mutex
	items   []model.Notification
	limit   int
	subs    map[int]func(Snapshot)
	nextSub int

	now     func() time.Time
	metrics *metrics.Metrics
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreClock overrides the receipt timestamp source.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithStoreMetrics reports the log size.
func WithStoreMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates an empty log holding at most limit entries.
func NewStore(limit int, opts ...StoreOption) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &Store{
		limit: limit,
		subs:  make(map[int]func(Snapshot)),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add records a new unread notification at the head of the log, evicting the oldest entry
// when the log is full.
func (s *Store) Add(kind model.NotificationKind, message string) model.Notification {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	n := model.Notification{
		ID:        ulid.Make().String(),
		Kind:      kind,
		Message:   message,
		CreatedAt: s.now(),
	}
	items := make([]model.Notification, 0, min(len(s.items)+1, s.limit))
	items = append(items, n)
	items = append(items, s.items[:min(len(s.items), s.limit-1)]...)
	s.items = items
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.NotificationLogSize.Set(float64(len(snap.Notifications)))
	}
	deliver(subs, snap)
	return n
}

// MarkAllRead marks every entry read and reports how many changed. Calling it again is a
// no-op and notifies nobody.
func (s *Store) MarkAllRead() int {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	changed := 0
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			changed++
		}
	}
	if changed == 0 {
		s.mu.Unlock()
		return 0
	}
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	deliver(subs, snap)
	return changed
}

// Snapshot returns a copy of the log.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// UnreadCount returns the number of unread entries.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return unread(s.items)
}

// Subscribe registers fn for change notifications. fn must not call back into the
// store's mutating methods. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) snapshotLocked() Snapshot {
	items := make([]model.Notification, len(s.items))
	copy(items, s.items)
	return Snapshot{Notifications: items, UnreadCount: unread(items)}
}

func (s *Store) subscribersLocked() []func(Snapshot) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	subs := make([]func(Snapshot), len(ids))
	for i, id := range ids {
		subs[i] = s.subs[id]
	}
	return subs
}

func deliver(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func unread(items []model.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}
