package domain

// CartLineItem is one product entry of a cart. The JSON shape doubles as the
// persisted snapshot format and the checkout payload.
type CartLineItem struct {
	ID          string  `json:"_id" validate:"required"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price" validate:"gte=0"`
	Image       string  `json:"image,omitempty"`
	Stock       int     `json:"stock"`
	Quantity    int     `json:"quantity" validate:"gte=1"`
}

// NewLineItem builds a line item from a catalog product.
func NewLineItem(p Product, quantity int) CartLineItem {
	return CartLineItem{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		Stock:       p.Stock,
		Quantity:    quantity,
	}
}

// Subtotal is price times quantity.
func (l CartLineItem) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}
