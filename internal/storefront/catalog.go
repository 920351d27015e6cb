package storefront

import (
	"context"

	"storefront/internal/domain"
)

func (a *App) Products(ctx context.Context) ([]domain.Product, error) {
	return a.api.ListProducts(ctx)
}

func (a *App) Product(ctx context.Context, id string) (domain.Product, error) {
	if id == "" {
		return domain.Product{}, required("id")
	}
	return a.api.GetProduct(ctx, id)
}

// ImageURL resolves a product image path against the backend.
func (a *App) ImageURL(path string) string {
	return a.api.ImageURL(path)
}
