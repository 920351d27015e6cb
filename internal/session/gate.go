// Package session decides whether a user is signed in and keeps the persisted
// cart aligned with that decision.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/kvstore"
	"storefront/internal/logging"
)

// State is the authentication state of the client.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// CartSync is the part of the cart persistence bridge the gate drives.
type CartSync interface {
	Resume(ctx context.Context)
	EraseAndClear(ctx context.Context)
}

// Gate owns the stored session credentials.
type Gate struct {
	kv     kvstore.Store
	cart   CartSync
	logger *zap.Logger

	logoutOnAnyProfileError bool

	// transition serializes state changes together with their notification.
	transition sync.Mutex

	mu        sync.RWMutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

// Option customizes a Gate.
type Option func(*Gate)

// WithLogger sets the logger; a nop logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) { g.logger = logging.OrNop(l) }
}

// WithLogoutOnAnyProfileError makes HandleProfileError sign out on every
// error, not just authentication rejections.
func WithLogoutOnAnyProfileError(on bool) Option {
	return func(g *Gate) { g.logoutOnAnyProfileError = on }
}

func New(kv kvstore.Store, cart CartSync, opts ...Option) *Gate {
	g := &Gate{
		kv:        kv,
		cart:      cart,
		logger:    zap.NewNop(),
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("session")
	return g
}

// Start derives the initial state from the stored token and, when signed in,
// restores the persisted cart. An unreadable token is logged and leaves the
// gate signed out.
func (g *Gate) Start(ctx context.Context) {
	g.transition.Lock()
	defer g.transition.Unlock()

	token, found, err := g.kv.Get(ctx, kvstore.KeyToken)
	if err != nil {
		g.logger.Error("read session token", zap.Error(err))
		g.set(Unauthenticated)
		return
	}
	if !found || token == "" {
		g.set(Unauthenticated)
		return
	}
	g.cart.Resume(ctx)
	g.set(Authenticated)
}

// SignIn stores the credentials returned by a successful login. The token is
// required; a lost email write only costs a later checkout prompt and is
// logged.
func (g *Gate) SignIn(ctx context.Context, token, email string) error {
	if token == "" {
		return errors.New("sign in: empty token")
	}
	g.transition.Lock()
	defer g.transition.Unlock()

	if err := g.kv.Set(ctx, kvstore.KeyToken, token); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}
	if err := g.kv.Set(ctx, kvstore.KeyEmail, email); err != nil {
		g.logger.Error("store session email", zap.Error(err))
	}
	g.cart.Resume(ctx)
	g.set(Authenticated)
	g.logger.Info("signed in", zap.String("email", email))
	return nil
}

// SignOut forgets the credentials and the persisted cart. It never fails.
func (g *Gate) SignOut(ctx context.Context) {
	g.transition.Lock()
	defer g.transition.Unlock()

	for _, key := range []string{kvstore.KeyToken, kvstore.KeyEmail} {
		if err := g.kv.Remove(ctx, key); err != nil {
			g.logger.Error("remove session key", zap.String("key", key), zap.Error(err))
		}
	}
	g.cart.EraseAndClear(ctx)
	g.set(Unauthenticated)
	g.logger.Info("signed out")
}

// HandleProfileError reacts to a failed profile fetch. Authentication
// rejections end the session; other errors do so only when the gate was built
// with WithLogoutOnAnyProfileError. It reports whether a sign-out happened.
func (g *Gate) HandleProfileError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if !g.logoutOnAnyProfileError && !errors.Is(err, apiclient.ErrUnauthorized) {
		g.logger.Warn("profile fetch failed", zap.Error(err))
		return false
	}
	g.logger.Warn("profile fetch failed, ending session", zap.Error(err))
	g.SignOut(ctx)
	return true
}

func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Gate) Authenticated() bool {
	return g.State() == Authenticated
}

// Token returns the stored bearer token, empty when signed out.
func (g *Gate) Token(ctx context.Context) (string, error) {
	v, _, err := g.kv.Get(ctx, kvstore.KeyToken)
	return v, err
}

// Email returns the stored session email, empty when none is stored.
func (g *Gate) Email(ctx context.Context) (string, error) {
	v, _, err := g.kv.Get(ctx, kvstore.KeyEmail)
	return v, err
}

// Subscribe registers fn for state changes and returns a cancel function.
func (g *Gate) Subscribe(fn func(State)) (cancel func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.listeners, id)
			g.mu.Unlock()
		})
	}
}

// set records s and notifies listeners if it differs. Callers hold transition.
func (g *Gate) set(s State) {
	g.mu.Lock()
	changed := g.state != s
	g.state = s
	var fns []func(State)
	if changed {
		fns = make([]func(State), 0, len(g.listeners))
		for _, fn := range g.listeners {
			fns = append(fns, fn)
		}
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
