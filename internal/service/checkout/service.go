package checkout

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/contract"
	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/notify"
)

type orderRepo interface {
	Place(ctx context.Context, o domain.Order) (*domain.Order, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service turns a submitted cart into a confirmed order.
type Service struct {
	orders   orderRepo
	products productRepo
	notifier notify.Notifier
	logger   *zap.Logger
}

func New(orders orderRepo, products productRepo, notifier notify.Notifier, logger *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		products: products,
		notifier: notifier,
		logger:   logging.OrNop(logger).Named("checkout"),
	}
}

// Checkout prices the cart from the catalog, reserves stock and records the
// order. Lines repeating a product id are merged. The order and its
// confirmation go to the account email of u, whatever the request names; a
// failed notification does not undo the order.
func (s *Service) Checkout(ctx context.Context, u domain.User, req contract.CheckoutRequest) (*domain.Order, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := contract.Validate(req); err != nil {
		return nil, err
	}

	lines := make([]domain.CartLineItem, 0, len(req.Cart))
	index := make(map[string]int, len(req.Cart))
	for _, item := range req.Cart {
		if i, ok := index[item.ID]; ok {
			lines[i].Quantity += item.Quantity
			continue
		}
		p, err := s.products.GetByID(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", item.ID, err)
		}
		index[item.ID] = len(lines)
		lines = append(lines, domain.NewLineItem(*p, item.Quantity))
	}

	if !strings.EqualFold(req.Email, u.Email) {
		s.logger.Info("checkout email differs from account, using account email", zap.String("user_id", u.ID))
	}

	o, err := s.orders.Place(ctx, domain.Order{
		UserID: u.ID,
		Email:  u.Email,
		Lines:  lines,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", u.ID),
		zap.Int("lines", len(o.Lines)),
		zap.Float64("total", o.Total),
	)

	if err := s.notifier.Notify(ctx, confirmation(*o)); err != nil {
		s.logger.Warn("order confirmation not sent", zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}

func confirmation(o domain.Order) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your purchase. Order %s:\n", o.ID)
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "  %d x %s  %.2f\n", l.Quantity, l.Name, l.Subtotal())
	}
	fmt.Fprintf(&b, "Total: %.2f\n", o.Total)
	return notify.Message{To: o.Email, Subject: "Order confirmation", Body: b.String()}
}
