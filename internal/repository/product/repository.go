package product

import (
	"context"

	"storefront/internal/domain"
)

// Repository reads and writes the catalog.
type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// Upsert inserts p, or replaces the product with the same id. An empty id
	// gets a generated one.
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
