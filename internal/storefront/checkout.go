package storefront

import (
	"context"

	"go.uber.org/zap"

	"storefront/internal/contract"
)

// PlaceOrder submits the cart with the session email. The cart is left as it
// is until ConfirmOrder.
func (a *App) PlaceOrder(ctx context.Context) (contract.CheckoutResponse, error) {
	if !a.gate.Authenticated() {
		return contract.CheckoutResponse{}, ErrNotSignedIn
	}
	items := a.cart.Items()
	if len(items) == 0 {
		return contract.CheckoutResponse{}, ErrEmptyCart
	}
	email, err := a.gate.Email(ctx)
	if err != nil {
		a.logger.Error("read session email", zap.Error(err))
		return contract.CheckoutResponse{}, ErrNoSessionEmail
	}
	if email == "" {
		return contract.CheckoutResponse{}, ErrNoSessionEmail
	}
	resp, err := a.api.Checkout(ctx, contract.CheckoutRequest{Email: email, Cart: items})
	if err != nil {
		return contract.CheckoutResponse{}, err
	}
	a.logger.Info("order placed", zap.String("order_id", resp.OrderID), zap.Int("lines", len(items)))
	return resp, nil
}

// ConfirmOrder acknowledges a placed order: the persisted snapshot is erased
// and the cart emptied.
func (a *App) ConfirmOrder(ctx context.Context) {
	a.bridge.EraseAndClear(ctx)
}

// Checkout places the order and, once the backend accepts it, confirms it.
func (a *App) Checkout(ctx context.Context) (contract.CheckoutResponse, error) {
	resp, err := a.PlaceOrder(ctx)
	if err != nil {
		return contract.CheckoutResponse{}, err
	}
	a.ConfirmOrder(ctx)
	return resp, nil
}
