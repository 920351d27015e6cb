package order

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// StockReserver takes stock for a set of lines, all or nothing.
type StockReserver interface {
	Reserve(lines []domain.CartLineItem) error
}

type Memory struct {
	stock StockReserver

	mu     sync.Mutex
	orders map[string]domain.Order
}

// NewMemory records orders in process and reserves stock through stock,
// typically the in-memory product repository.
func NewMemory(stock StockReserver) *Memory {
	return &Memory{stock: stock, orders: make(map[string]domain.Order)}
}

func (m *Memory) Place(_ context.Context, o domain.Order) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.stock.Reserve(o.Lines); err != nil {
		return nil, err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Total = domain.OrderTotal(o.Lines)
	o.CreatedAt = time.Now().UTC()
	o.Lines = append([]domain.CartLineItem(nil), o.Lines...)
	m.orders[o.ID] = o
	return &o, nil
}

func (m *Memory) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o.Lines = append([]domain.CartLineItem(nil), o.Lines...)
	return &o, nil
}
