// Package seed loads demo data for manual testing.
package seed

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/contract"
	"storefront/internal/domain"
)

// DemoEmail and DemoPassword are the credentials of the seeded user.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo123"
)

type productWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type registrar interface {
	Register(ctx context.Context, in contract.RegisterRequest) (*domain.User, error)
}

// Products is the demo catalog.
var Products = []domain.Product{
	{ID: "demo-mate", Name: "Mate de calabaza", Description: "Traditional gourd with a steel rim", Price: 19.99, Image: "/images/mate.png", Stock: 12},
	{ID: "demo-bombilla", Name: "Bombilla", Description: "Stainless steel straw", Price: 7.5, Image: "/images/bombilla.png", Stock: 30},
	{ID: "demo-termo", Name: "Termo 1L", Description: "Vacuum flask, keeps water hot for 24h", Price: 34.9, Image: "/images/termo.png", Stock: 5},
	{ID: "demo-yerba", Name: "Yerba 1kg", Description: "Classic cut", Price: 6.25, Image: "/images/yerba.png", Stock: 100},
	{ID: "demo-matera", Name: "Matera", Description: "Leather bag for mate gear", Price: 45, Image: "/images/matera.png", Stock: 0},
}

// Apply upserts the demo catalog and registers the demo user. It is
// idempotent.
func Apply(ctx context.Context, products productWriter, users registrar) error {
	for _, p := range Products {
		if _, err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}

	_, err := users.Register(ctx, contract.RegisterRequest{
		Name:     "Demo User",
		Email:    DemoEmail,
		Password: DemoPassword,
		Address: domain.Address{
			Street:      "Av. 18 de Julio 1000",
			City:        "Montevideo",
			Department:  "Montevideo",
			Description: "Demo address",
		},
	})
	if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return fmt.Errorf("register demo user: %w", err)
	}
	return nil
}
