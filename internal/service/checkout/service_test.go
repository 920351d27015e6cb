package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront/internal/contract"
	"storefront/internal/domain"
	"storefront/internal/notify"
)

type stubProducts struct {
	byID map[string]domain.Product
}

func (s *stubProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

type stubOrders struct {
	placed   []domain.Order
	placeErr error
}

func (s *stubOrders) Place(_ context.Context, o domain.Order) (*domain.Order, error) {
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	o.ID = "order-1"
	o.Total = domain.OrderTotal(o.Lines)
	s.placed = append(s.placed, o)
	return &o, nil
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, notify.Message) error { return errors.New("smtp down") }

func catalog() *stubProducts {
	return &stubProducts{byID: map[string]domain.Product{
		"mate":  {ID: "mate", Name: "Mate", Price: 19.99, Stock: 5},
		"yerba": {ID: "yerba", Name: "Yerba", Price: 0.01, Stock: 50},
	}}
}

var buyer = domain.User{ID: "user-1", Name: "Ana", Email: "ana@example.com"}

func TestCheckout_PricesFromCatalogAndMergesLines(t *testing.T) {
	orders := &stubOrders{}
	mail := &notify.Recorder{}
	svc := New(orders, catalog(), mail, nil)

	o, err := svc.Checkout(context.Background(), buyer, contract.CheckoutRequest{
		Email: "ana@example.com",
		Cart: []domain.CartLineItem{
			{ID: "mate", Name: "tampered", Price: 0.5, Quantity: 1},
			{ID: "yerba", Price: 0.01, Quantity: 3},
			{ID: "mate", Price: 19.99, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(orders.placed) != 1 {
		t.Fatalf("expected one placed order")
	}
	placed := orders.placed[0]
	if placed.UserID != "user-1" || len(placed.Lines) != 2 {
		t.Fatalf("unexpected order %+v", placed)
	}
	if placed.Lines[0].ID != "mate" || placed.Lines[0].Quantity != 2 || placed.Lines[0].Price != 19.99 || placed.Lines[0].Name != "Mate" {
		t.Fatalf("unexpected first line %+v", placed.Lines[0])
	}
	if o.Total != 40.01 {
		t.Fatalf("expected total 40.01, got %v", o.Total)
	}

	msg, ok := mail.Last("ana@example.com")
	if !ok {
		t.Fatalf("no confirmation sent")
	}
	if !strings.Contains(msg.Body, "order-1") || !strings.Contains(msg.Body, "40.01") {
		t.Fatalf("unexpected confirmation %q", msg.Body)
	}
}

func TestCheckout_RejectsInvalidRequest(t *testing.T) {
	svc := New(&stubOrders{}, catalog(), &notify.Recorder{}, nil)
	cases := map[string]contract.CheckoutRequest{
		"empty cart":    {Email: "ana@example.com"},
		"no email":      {Cart: []domain.CartLineItem{{ID: "mate", Quantity: 1}}},
		"zero quantity": {Email: "ana@example.com", Cart: []domain.CartLineItem{{ID: "mate", Quantity: 0}}},
	}
	for name, req := range cases {
		if _, err := svc.Checkout(context.Background(), buyer, req); !errors.Is(err, contract.ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestCheckout_UnknownProduct(t *testing.T) {
	orders := &stubOrders{}
	svc := New(orders, catalog(), &notify.Recorder{}, nil)
	_, err := svc.Checkout(context.Background(), buyer, contract.CheckoutRequest{
		Email: "ana@example.com",
		Cart:  []domain.CartLineItem{{ID: "ghost", Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(orders.placed) != 0 {
		t.Fatalf("no order should be placed")
	}
}

func TestCheckout_PropagatesStockFailure(t *testing.T) {
	svc := New(&stubOrders{placeErr: domain.ErrInsufficientStock}, catalog(), &notify.Recorder{}, nil)
	_, err := svc.Checkout(context.Background(), buyer, contract.CheckoutRequest{
		Email: "ana@example.com",
		Cart:  []domain.CartLineItem{{ID: "mate", Quantity: 9}},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestCheckout_NotificationFailureKeepsOrder(t *testing.T) {
	orders := &stubOrders{}
	svc := New(orders, catalog(), failingNotifier{}, nil)
	o, err := svc.Checkout(context.Background(), buyer, contract.CheckoutRequest{
		Email: "ana@example.com",
		Cart:  []domain.CartLineItem{{ID: "yerba", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if o.ID == "" || len(orders.placed) != 1 {
		t.Fatalf("order should stand despite notification failure")
	}
}

func TestCheckout_ConfirmationGoesToAccountEmail(t *testing.T) {
	orders := &stubOrders{}
	mail := &notify.Recorder{}
	svc := New(orders, catalog(), mail, nil)

	_, err := svc.Checkout(context.Background(), buyer, contract.CheckoutRequest{
		Email: "victim@example.org",
		Cart:  []domain.CartLineItem{{ID: "yerba", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if got := orders.placed[0].Email; got != buyer.Email {
		t.Fatalf("expected order email %s, got %s", buyer.Email, got)
	}
	if _, ok := mail.Last("victim@example.org"); ok {
		t.Fatalf("confirmation sent to an address other than the account's")
	}
	if _, ok := mail.Last(buyer.Email); !ok {
		t.Fatalf("no confirmation sent to the account email")
	}
}
