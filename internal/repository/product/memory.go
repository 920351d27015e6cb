package product

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Memory is an in-process catalog for local runs and tests. It also owns the
// stock counters, so order placement reserves through it.
type Memory struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]domain.Product
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]domain.Product)}
}

func (m *Memory) List(_ context.Context) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Product, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out, nil
}

func (m *Memory) GetByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if existing, ok := m.byID[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = time.Now().UTC()
		m.order = append(m.order, p.ID)
	}
	m.byID[p.ID] = p
	return &p, nil
}

// Reserve takes quantity units of each product atomically: either every line
// fits the stock and all are decremented, or nothing changes.
func (m *Memory) Reserve(lines []domain.CartLineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]int, len(lines))
	for _, l := range lines {
		want[l.ID] += l.Quantity
	}
	for id, qty := range want {
		p, ok := m.byID[id]
		if !ok {
			return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
		if p.Stock < qty {
			return fmt.Errorf("product %s: %w", id, domain.ErrInsufficientStock)
		}
	}
	for id, qty := range want {
		p := m.byID[id]
		p.Stock -= qty
		m.byID[id] = p
	}
	return nil
}
