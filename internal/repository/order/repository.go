package order

import (
	"context"

	"storefront/internal/domain"
)

// Repository records confirmed orders.
type Repository interface {
	// Place reserves stock for every line and stores the order as one unit.
	// It fails with domain.ErrInsufficientStock or domain.ErrNotFound and
	// leaves stock untouched when any line cannot be served.
	Place(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}
