// Package cart holds the in-memory cart: an ordered list of line items with at
// most one entry per product id and every quantity at least 1.
package cart

import (
	"sync"

	"storefront/internal/domain"
)

// Listener receives a private copy of the cart after each mutation.
type Listener func(items []domain.CartLineItem)

// Store owns the cart. All writes go through its methods; every mutation
// notifies the subscribers synchronously before returning.
//
// Listeners may read the store but must not mutate it.
type Store struct {
	// publishMu serializes a mutation together with its notification.
	publishMu sync.Mutex

	mu        sync.RWMutex
	items     []domain.CartLineItem
	listeners map[int]Listener
	nextID    int
}

// New returns an empty cart.
func New() *Store {
	return &Store{listeners: make(map[int]Listener)}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Add increments the quantity of an existing line item or appends item with
// the given quantity. Stock is not enforced here.
func (s *Store) Add(item domain.CartLineItem, quantity int) {
	s.mutate(func(items []domain.CartLineItem) []domain.CartLineItem {
		if i := indexOf(items, item.ID); i >= 0 {
			items[i].Quantity = atLeastOne(items[i].Quantity + quantity)
			return items
		}
		item.Quantity = atLeastOne(quantity)
		return append(items, item)
	})
}

// SetQuantity sets the quantity of id to max(1, quantity). Unknown ids are ignored.
func (s *Store) SetQuantity(id string, quantity int) {
	s.mutate(func(items []domain.CartLineItem) []domain.CartLineItem {
		if i := indexOf(items, id); i >= 0 {
			items[i].Quantity = atLeastOne(quantity)
		}
		return items
	})
}

// Remove deletes the line item with id, if any.
func (s *Store) Remove(id string) {
	s.mutate(func(items []domain.CartLineItem) []domain.CartLineItem {
		if i := indexOf(items, id); i >= 0 {
			return append(items[:i], items[i+1:]...)
		}
		return items
	})
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mutate(func([]domain.CartLineItem) []domain.CartLineItem {
		return nil
	})
}

// LoadAll replaces the cart with items as given. The caller vouches for the
// content: nothing is validated or de-duplicated.
func (s *Store) LoadAll(items []domain.CartLineItem) {
	s.mutate(func([]domain.CartLineItem) []domain.CartLineItem {
		return clone(items)
	})
}

// Items returns a copy of the current line items in insertion order.
func (s *Store) Items() []domain.CartLineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.items)
}

// Len is the number of line items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Find returns the line item for id.
func (s *Store) Find(id string) (domain.CartLineItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.items, id); i >= 0 {
		return s.items[i], true
	}
	return domain.CartLineItem{}, false
}

// TotalQuantity sums the quantities of all line items.
func (s *Store) TotalQuantity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Total is the cart value, price times quantity over all line items.
func (s *Store) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.OrderTotal(s.items)
}

func (s *Store) mutate(fn func([]domain.CartLineItem) []domain.CartLineItem) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	s.items = fn(s.items)
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(s.Items())
	}
}

func indexOf(items []domain.CartLineItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func atLeastOne(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

func clone(items []domain.CartLineItem) []domain.CartLineItem {
	if len(items) == 0 {
		return []domain.CartLineItem{}
	}
	out := make([]domain.CartLineItem, len(items))
	copy(out, items)
	return out
}
