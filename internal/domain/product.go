package domain

import "time"

// Product is a catalog entry as served by the storefront backend.
type Product struct {
	ID          string    `json:"_id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price" validate:"gte=0"`
	Image       string    `json:"image,omitempty"`
	Stock       int       `json:"stock" validate:"gte=0"`
	CreatedAt   time.Time `json:"-"`
}

// InStock reports whether at least one unit can be ordered.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// PriceCents converts the decimal price into integer cents for storage.
func PriceCents(price float64) int64 {
	if price < 0 {
		return -int64(-price*100 + 0.5)
	}
	return int64(price*100 + 0.5)
}

// PriceFromCents converts stored cents back into the decimal unit.
func PriceFromCents(cents int64) float64 {
	return float64(cents) / 100
}
