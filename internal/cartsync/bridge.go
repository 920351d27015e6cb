// Package cartsync mirrors the in-memory cart to the durable key-value store
// and restores it when a session resumes.
package cartsync

import (
	"context"

	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/kvstore"
	"storefront/internal/logging"
)

// Bridge keeps the persisted cart snapshot in step with a cart.Store. The
// store stays authoritative: storage is written from it and read back only on
// Resume.
type Bridge struct {
	store  *cart.Store
	kv     kvstore.Store
	key    string
	logger *zap.Logger
	w      *writer

	unsubscribe func()
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithKey overrides the storage key, kvstore.KeyCart by default.
func WithKey(key string) Option {
	return func(b *Bridge) { b.key = key }
}

// New wires a bridge between store and kv. Call Start to begin mirroring.
func New(store *cart.Store, kv kvstore.Store, logger *zap.Logger, opts ...Option) *Bridge {
	b := &Bridge{
		store:  store,
		kv:     kv,
		key:    kvstore.KeyCart,
		logger: logging.OrNop(logger).Named("cartsync"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.w = newWriter(kv, b.key, b.logger)
	return b
}

// Start subscribes to the cart and launches the background writer.
func (b *Bridge) Start() {
	if b.unsubscribe != nil {
		return
	}
	b.w.start()
	b.unsubscribe = b.store.Subscribe(b.save)
}

func (b *Bridge) save(items []domain.CartLineItem) {
	if len(items) == 0 {
		b.w.enqueue(op{remove: true})
		return
	}
	snapshot, err := Encode(items)
	if err != nil {
		b.logger.Error("encode cart", zap.Error(err))
		return
	}
	b.w.enqueue(op{snapshot: snapshot})
}

// Resume loads the persisted snapshot into the cart. A missing snapshot leaves
// the cart as it is; so does an unreadable one, after logging.
func (b *Bridge) Resume(ctx context.Context) {
	snapshot, found, err := b.kv.Get(ctx, b.key)
	if err != nil {
		b.logger.Error("load cart", zap.Error(err))
		return
	}
	if !found {
		b.logger.Debug("no persisted cart")
		return
	}
	items, err := Decode(snapshot)
	if err != nil {
		b.logger.Warn("discarding unreadable cart snapshot", zap.Error(err))
		return
	}
	b.store.LoadAll(items)
	b.logger.Debug("cart restored", zap.Int("items", len(items)))
}

// EraseAndClear removes the persisted snapshot and then empties the cart.
// Storage goes first so a failure in between cannot resurrect the old cart on
// the next Resume.
func (b *Bridge) EraseAndClear(ctx context.Context) {
	b.w.erase(ctx)
	b.store.Clear()
}

// Flush writes any pending snapshot before returning.
func (b *Bridge) Flush(ctx context.Context) {
	b.w.drain(ctx)
}

// Close stops mirroring and flushes the last snapshot.
func (b *Bridge) Close(ctx context.Context) {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	b.w.stop(ctx)
}
