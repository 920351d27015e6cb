// Package backend assembles the development storefront backend: repositories,
// services and the HTTP routes on top of them.
package backend

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/httpserver"
	"storefront/internal/notify"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
	checkoutsvc "storefront/internal/service/checkout"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"
)

// Stack is a fully wired backend.
type Stack struct {
	Products productrepo.Repository
	Orders   orderrepo.Repository

	ProductSvc  *productsvc.Service
	UserSvc     *usersvc.Service
	CheckoutSvc *checkoutsvc.Service

	db httpserver.Pinger
}

// NewMemory wires the backend on in-process repositories.
func NewMemory(logger *zap.Logger, notifier notify.Notifier, opts ...usersvc.Option) *Stack {
	products := productrepo.NewMemory()
	return assemble(logger, notifier, nil,
		products,
		userrepo.NewMemory(),
		tokenrepo.NewMemory(),
		orderrepo.NewMemory(products),
		opts...,
	)
}

// NewPostgres wires the backend on Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger, notifier notify.Notifier, opts ...usersvc.Option) *Stack {
	return assemble(logger, notifier, pool,
		productrepo.NewPostgres(pool, logger),
		userrepo.NewPostgres(pool, logger),
		tokenrepo.NewPostgres(pool),
		orderrepo.NewPostgres(pool),
		opts...,
	)
}

func assemble(
	logger *zap.Logger,
	notifier notify.Notifier,
	db httpserver.Pinger,
	products productrepo.Repository,
	users userrepo.Repository,
	tokens tokenrepo.Repository,
	orders orderrepo.Repository,
	opts ...usersvc.Option,
) *Stack {
	if notifier == nil {
		notifier = notify.NewLog(logger)
	}
	return &Stack{
		Products:    products,
		Orders:      orders,
		ProductSvc:  productsvc.New(products),
		UserSvc:     usersvc.New(users, tokens, notifier, logger, opts...),
		CheckoutSvc: checkoutsvc.New(orders, products, notifier, logger),
		db:          db,
	}
}

// Server builds the HTTP server for the stack.
func (s *Stack) Server(addr string, logger *zap.Logger, corsOrigins []string) *httpserver.Server {
	return httpserver.New(addr, logger, s.db, httpserver.Deps{
		ProductSvc:  s.ProductSvc,
		UserSvc:     s.UserSvc,
		CheckoutSvc: s.CheckoutSvc,
	}, corsOrigins)
}
