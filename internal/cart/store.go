// Package cart holds the shopper's cart: an ordered set of lines keyed by
// (product, size) plus the drawer visibility flag, persisted after every
// mutation so it survives restarts.
//
// The cart is optimistic. It never checks prices or stock against the
// catalog; checkout re-validates every line server-side.
package cart

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/velora-shop/storefront-backend/pkg/logger"
)

const snapshotVersion = 1

// Snapshot is the observable cart state.
type Snapshot struct {
	Lines []Line `json:"cart"`
	Open  bool   `json:"isOpen"`
}

type persisted struct {
	State   Snapshot `json:"state"`
	Version int      `json:"version"`
}

// Store owns the cart state. All mutations go through its methods; nothing
// else writes the persisted slot.
type Store struct {
	mu      sync.Mutex
	storage Storage
	key     string
	lines   []Line
	open    bool

	// notifyMu orders deliveries; it is taken before mu is released.
	notifyMu    sync.Mutex
	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

type Option func(*Store)

// WithKey overrides the persisted key, e.g. to keep one cart per profile.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// New creates a store and restores whatever was persisted under its key.
// A missing or unreadable snapshot yields an empty cart.
func New(storage Storage, opts ...Option) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Store{
		storage:     storage,
		key:         StorageKey,
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	data, err := s.storage.Load(s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("Failed to load persisted cart, starting empty", map[string]interface{}{
				"key":   s.key,
				"error": err.Error(),
			})
		}
		return
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Warn("Persisted cart is unreadable, starting empty", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
		return
	}
	s.lines = p.State.Lines
	s.open = p.State.Open

	logger.Debug("Cart restored", map[string]interface{}{
		"key":   s.key,
		"lines": len(s.lines),
	})
}

// Add merges the line into an existing line with the same (product, size),
// summing quantities, or appends it.
func (s *Store) Add(item Line) {
	s.mutate(func() {
		for i := range s.lines {
			if s.lines[i].Key() == item.Key() {
				s.lines[i].Quantity += item.Quantity
				return
			}
		}
		s.lines = append(s.lines, item)
	})
}

// Remove deletes every line of the product, whatever its size.
func (s *Store) Remove(productID string) {
	s.mutate(func() {
		kept := s.lines[:0]
		for _, l := range s.lines {
			if l.ProductID != productID {
				kept = append(kept, l)
			}
		}
		s.lines = kept
	})
}

// UpdateQuantity sets the quantity of the (product, size) line. The value is
// stored as given; callers keep it at 1 or more.
func (s *Store) UpdateQuantity(productID, size string, quantity int) {
	key := LineKey{ProductID: productID, Size: size}
	s.mutate(func() {
		for i := range s.lines {
			if s.lines[i].Key() == key {
				s.lines[i].Quantity = quantity
				return
			}
		}
	})
}

func (s *Store) Clear() {
	s.mutate(func() {
		s.lines = nil
	})
}

func (s *Store) OpenCart() {
	s.mutate(func() { s.open = true })
}

func (s *Store) CloseCart() {
	s.mutate(func() { s.open = false })
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines...)
}

// Len is the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// ItemCount is the sum of quantities across lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Total is the sum of line subtotals.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total.InexactFloat64()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to run after every mutation. Snapshots arrive in
// mutation order. fn must not mutate the store. The returned func removes
// the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) snapshotLocked() Snapshot {
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	return Snapshot{Lines: lines, Open: s.open}
}

// mutate applies fn and rewrites the persisted slot while holding the lock,
// so persisted order matches mutation order. Subscribers run outside mu but
// under notifyMu, which keeps delivery in the same order. Persistence
// failures are logged and the in-memory state stays authoritative.
func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	s.persistLocked(snap)
	s.notifyMu.Lock()
	s.mu.Unlock()

	defer s.notifyMu.Unlock()
	s.notify(snap)
}

func (s *Store) persistLocked(snap Snapshot) {
	data, err := json.Marshal(persisted{State: snap, Version: snapshotVersion})
	if err != nil {
		logger.Error("Failed to encode cart", err, map[string]interface{}{"key": s.key})
		return
	}
	if err := s.storage.Save(s.key, data); err != nil {
		logger.Error("Failed to persist cart", err, map[string]interface{}{
			"key":   s.key,
			"lines": len(snap.Lines),
		})
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
