package domain

import "time"

// Order is a confirmed checkout recorded by the backend.
type Order struct {
	ID        string         `json:"id"`
	UserID    string         `json:"-"`
	Email     string         `json:"email"`
	Lines     []CartLineItem `json:"items"`
	Total     float64        `json:"total"`
	CreatedAt time.Time      `json:"createdAt"`
}

// OrderTotal sums the subtotals of the given lines.
func OrderTotal(lines []CartLineItem) float64 {
	var cents int64
	for _, l := range lines {
		cents += PriceCents(l.Price) * int64(l.Quantity)
	}
	return PriceFromCents(cents)
}
