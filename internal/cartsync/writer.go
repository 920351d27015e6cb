package cartsync

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/kvstore"
)

// op is one pending storage write. An empty cart is stored as an absent key.
type op struct {
	remove   bool
	snapshot string
}

// writer applies snapshot writes one at a time on its own goroutine. The
// mailbox holds a single op: a newer snapshot replaces an unsent older one, so
// storage always converges on the last snapshot issued.
type writer struct {
	kv     kvstore.Store
	key    string
	logger *zap.Logger

	mu      sync.Mutex
	pending *op

	// ioMu is held for every storage call; whoever holds it owns the key.
	ioMu sync.Mutex

	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}
	started bool
	stopped bool
}

func newWriter(kv kvstore.Store, key string, logger *zap.Logger) *writer {
	return &writer{
		kv:     kv,
		key:    key,
		logger: logger,
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (w *writer) start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	go w.run()
}

func (w *writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.quit:
			return
		case <-w.wake:
			w.drain(context.Background())
		}
	}
}

func (w *writer) enqueue(o op) {
	w.mu.Lock()
	w.pending = &o
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) take() *op {
	w.mu.Lock()
	defer w.mu.Unlock()
	o := w.pending
	w.pending = nil
	return o
}

// drain applies the pending op, if any. The op is taken only after ioMu is
// held so an erase can never be overtaken by an older write.
func (w *writer) drain(ctx context.Context) {
	w.ioMu.Lock()
	defer w.ioMu.Unlock()
	if o := w.take(); o != nil {
		w.apply(ctx, *o)
	}
}

func (w *writer) apply(ctx context.Context, o op) {
	if o.remove {
		if err := w.kv.Remove(ctx, w.key); err != nil {
			w.logger.Error("clear persisted cart", zap.String("key", w.key), zap.Error(err))
		}
		return
	}
	if err := w.kv.Set(ctx, w.key, o.snapshot); err != nil {
		w.logger.Error("save cart", zap.String("key", w.key), zap.Error(err))
	}
}

// erase drops any unsent snapshot and removes the key.
func (w *writer) erase(ctx context.Context) {
	w.ioMu.Lock()
	defer w.ioMu.Unlock()
	w.take()
	if err := w.kv.Remove(ctx, w.key); err != nil {
		w.logger.Error("clear persisted cart", zap.String("key", w.key), zap.Error(err))
	}
}

// stop ends the goroutine and applies whatever is still pending.
func (w *writer) stop(ctx context.Context) {
	w.mu.Lock()
	started, stopped := w.started, w.stopped
	w.stopped = true
	w.mu.Unlock()

	if started && !stopped {
		close(w.quit)
		<-w.done
	}
	w.drain(ctx)
}
