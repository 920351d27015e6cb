package storefront

import (
	"context"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// AddToCart fetches the product and adds up to quantity units of it, never
// more than the stock left after what the cart already holds. It returns the
// number of units actually added.
func (a *App) AddToCart(ctx context.Context, productID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	p, err := a.Product(ctx, productID)
	if err != nil {
		return 0, err
	}
	if !p.InStock() {
		return 0, ErrOutOfStock
	}
	available := p.Stock
	if line, ok := a.cart.Find(p.ID); ok {
		available -= line.Quantity
	}
	if available <= 0 {
		return 0, ErrStockLimit
	}
	if quantity > available {
		quantity = available
	}
	a.cart.Add(domain.NewLineItem(p, quantity), quantity)
	a.logger.Debug("added to cart", zap.String("product_id", p.ID), zap.Int("quantity", quantity))
	return quantity, nil
}

// ChangeQuantity moves a line's quantity by delta. The result never drops
// below one, and increments stop at the stock known for the line.
func (a *App) ChangeQuantity(productID string, delta int) (int, error) {
	line, ok := a.cart.Find(productID)
	if !ok {
		return 0, ErrNotInCart
	}
	q := max(1, line.Quantity+delta)
	if delta > 0 && line.Stock > 0 && q > line.Stock {
		q = max(line.Quantity, line.Stock)
	}
	a.cart.SetQuantity(productID, q)
	return q, nil
}

// SetQuantity replaces a line's quantity.
func (a *App) SetQuantity(productID string, quantity int) error {
	if quantity < 1 {
		return &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if _, ok := a.cart.Find(productID); !ok {
		return ErrNotInCart
	}
	a.cart.SetQuantity(productID, quantity)
	return nil
}

func (a *App) RemoveFromCart(productID string) {
	a.cart.Remove(productID)
}

// ClearCart empties the cart; the persisted snapshot follows.
func (a *App) ClearCart() {
	a.cart.Clear()
}

// Summary is the cart as shown to the customer.
type Summary struct {
	Items []domain.CartLineItem
	Units int
	Total float64
}

func (a *App) CartSummary() Summary {
	items := a.cart.Items()
	return Summary{
		Items: items,
		Units: a.cart.TotalQuantity(),
		Total: a.cart.Total(),
	}
}
