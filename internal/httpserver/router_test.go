package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/contract"
	"storefront/internal/domain"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubProductService struct {
	products []domain.Product
	err      error
}

func (s *stubProductService) List(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubCheckoutService struct {
	order *domain.Order
	err   error
	got   contract.CheckoutRequest
	user  domain.User
}

func (s *stubCheckoutService) Checkout(_ context.Context, u domain.User, req contract.CheckoutRequest) (*domain.Order, error) {
	s.got = req
	s.user = u
	return s.order, s.err
}

func testRouter(t *testing.T, db Pinger, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if deps.ProductSvc == nil {
		deps.ProductSvc = &stubProductService{}
	}
	if deps.UserSvc == nil {
		deps.UserSvc = &stubUserService{}
	}
	if deps.CheckoutSvc == nil {
		deps.CheckoutSvc = &stubCheckoutService{}
	}
	return buildRouter(zap.NewNop(), db, deps, nil)
}

func serve(router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(testRouter(t, nil, Deps{}), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	cases := []struct {
		name string
		db   Pinger
		want int
	}{
		{"memory", nil, http.StatusOK},
		{"db up", stubPinger{}, http.StatusOK},
		{"db down", stubPinger{err: errors.New("refused")}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		rec := serve(testRouter(t, tc.db, Deps{}), http.MethodGet, "/readyz", "")
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	rec := serve(testRouter(t, nil, Deps{}), http.MethodOptions, "/products", "",
		"Origin", "http://localhost:8081",
		"Access-Control-Request-Method", "GET",
	)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}

func TestProducts(t *testing.T) {
	svc := &stubProductService{products: []domain.Product{
		{ID: "p1", Name: "Mate", Price: 19.99, Image: "/img/mate.png", Stock: 4},
	}}
	router := testRouter(t, nil, Deps{ProductSvc: svc})

	rec := serve(router, http.MethodGet, "/products", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"_id":"p1"`) || !strings.Contains(rec.Body.String(), `"price":19.99`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = serve(router, http.MethodGet, "/products/p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = serve(router, http.MethodGet, "/products/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message"`) {
		t.Fatalf("error body lacks message: %s", rec.Body.String())
	}
}

func TestProducts_InternalError(t *testing.T) {
	router := testRouter(t, nil, Deps{ProductSvc: &stubProductService{err: errors.New("db gone")}})
	rec := serve(router, http.MethodGet, "/products", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db gone") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestCheckout(t *testing.T) {
	users := &stubUserService{user: &domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com"}}
	checkout := &stubCheckoutService{order: &domain.Order{ID: "o1", Total: 40.01}}
	router := testRouter(t, nil, Deps{UserSvc: users, CheckoutSvc: checkout})
	body := `{"email":"ana@example.com","cart":[{"_id":"p1","name":"Mate","price":19.99,"quantity":2}]}`

	rec := serve(router, http.MethodPost, "/checkout", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = serve(router, http.MethodPost, "/checkout", body, "Authorization", "Bearer tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"orderId":"o1"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if checkout.user.ID != "u1" || len(checkout.got.Cart) != 1 || checkout.got.Cart[0].Quantity != 2 {
		t.Fatalf("service saw user=%+v req=%+v", checkout.user, checkout.got)
	}

	checkout.err = domain.ErrInsufficientStock
	rec = serve(router, http.MethodPost, "/checkout", body, "Authorization", "Bearer tok")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
