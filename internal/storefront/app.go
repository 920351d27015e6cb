// Package storefront is the client application layer: catalog browsing, cart
// actions, checkout, profile editing and account flows on top of the cart
// store, its persistence bridge, the session gate and the API client.
package storefront

import (
	"context"

	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/cartsync"
	"storefront/internal/contract"
	"storefront/internal/domain"
	"storefront/internal/kvstore"
	"storefront/internal/logging"
	"storefront/internal/session"
)

// API is the remote backend as the application uses it.
type API interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	Checkout(ctx context.Context, req contract.CheckoutRequest) (contract.CheckoutResponse, error)
	GetProfile(ctx context.Context) (domain.User, error)
	UpdateProfile(ctx context.Context, u contract.ProfileUpdate) (domain.User, error)
	Register(ctx context.Context, req contract.RegisterRequest) (contract.Ack, error)
	Login(ctx context.Context, req contract.LoginRequest) (contract.LoginResponse, error)
	RequestPasswordReset(ctx context.Context, req contract.ResetRequest) (contract.Ack, error)
	ResetPassword(ctx context.Context, req contract.ResetConfirm) (contract.Ack, error)
	ImageURL(path string) string
}

// App wires the client components together.
type App struct {
	api    API
	cart   *cart.Store
	bridge *cartsync.Bridge
	gate   *session.Gate
	logger *zap.Logger
}

type options struct {
	logger           *zap.Logger
	logoutOnAnyError bool
}

// Option customizes an App.
type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLogoutOnAnyProfileError signs the user out on every failed profile
// fetch instead of only on authentication rejections.
func WithLogoutOnAnyProfileError(on bool) Option {
	return func(o *options) { o.logoutOnAnyError = on }
}

func New(api API, kv kvstore.Store, opts ...Option) *App {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNop(o.logger)

	store := cart.New()
	bridge := cartsync.New(store, kv, logger)
	gate := session.New(kv, bridge,
		session.WithLogger(logger),
		session.WithLogoutOnAnyProfileError(o.logoutOnAnyError),
	)
	return &App{
		api:    api,
		cart:   store,
		bridge: bridge,
		gate:   gate,
		logger: logger.Named("storefront"),
	}
}

// Start begins mirroring the cart and restores the session, and with it the
// persisted cart. Storage failures are logged and leave the user signed out.
func (a *App) Start(ctx context.Context) {
	a.bridge.Start()
	a.gate.Start(ctx)
}

// Close flushes the last cart snapshot to storage.
func (a *App) Close(ctx context.Context) {
	a.bridge.Close(ctx)
}

func (a *App) Cart() *cart.Store {
	return a.cart
}

func (a *App) Session() *session.Gate {
	return a.gate
}
