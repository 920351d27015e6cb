package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"storefront/internal/apiclient"
	"storefront/internal/cart"
	"storefront/internal/cartsync"
	"storefront/internal/domain"
	"storefront/internal/kvstore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	kv     *kvstore.Memory
	cart   *cart.Store
	bridge *cartsync.Bridge
	gate   *Gate
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{kv: kvstore.NewMemory(), cart: cart.New()}
	f.bridge = cartsync.New(f.cart, f.kv, nil)
	f.bridge.Start()
	t.Cleanup(func() { f.bridge.Close(context.Background()) })
	f.gate = New(f.kv, f.bridge, opts...)
	return f
}

func (f *fixture) seedSnapshot(t *testing.T, snapshot string) {
	t.Helper()
	require.NoError(t, f.kv.Set(context.Background(), kvstore.KeyCart, snapshot))
}

func (f *fixture) has(t *testing.T, key string) bool {
	t.Helper()
	_, found, err := f.kv.Get(context.Background(), key)
	require.NoError(t, err)
	return found
}

func TestStart_NoToken(t *testing.T) {
	f := newFixture(t)
	f.seedSnapshot(t, `[{"_id":"p1","price":1,"quantity":2}]`)

	f.gate.Start(context.Background())

	assert.Equal(t, Unauthenticated, f.gate.State())
	assert.Equal(t, 0, f.cart.Len(), "cart is only restored for a signed-in user")
}

func TestStart_TokenRestoresCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, kvstore.KeyToken, "tok"))
	f.seedSnapshot(t, `[{"_id":"p1","name":"Mate","price":12.5,"quantity":2}]`)

	f.gate.Start(ctx)

	assert.True(t, f.gate.Authenticated())
	item, ok := f.cart.Find("p1")
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
}

func TestStart_TokenWithoutSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, kvstore.KeyToken, "tok"))

	f.gate.Start(ctx)

	assert.True(t, f.gate.Authenticated())
	assert.Equal(t, 0, f.cart.Len())
}

func TestStart_TokenWithCorruptSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, kvstore.KeyToken, "tok"))
	f.seedSnapshot(t, `not a cart`)

	f.gate.Start(ctx)

	assert.True(t, f.gate.Authenticated())
	assert.Equal(t, 0, f.cart.Len())
}

func TestSignInSignOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var seen []State
	cancel := f.gate.Subscribe(func(s State) { seen = append(seen, s) })
	defer cancel()

	require.NoError(t, f.gate.SignIn(ctx, "tok", "ana@example.com"))
	email, err := f.gate.Email(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", email)
	token, err := f.gate.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	f.cart.Add(domain.CartLineItem{ID: "p1", Price: 3}, 2)
	f.bridge.Flush(ctx)
	require.True(t, f.has(t, kvstore.KeyCart))

	f.gate.SignOut(ctx)
	f.bridge.Flush(ctx)

	assert.Equal(t, Unauthenticated, f.gate.State())
	assert.Equal(t, 0, f.cart.Len())
	assert.False(t, f.has(t, kvstore.KeyToken))
	assert.False(t, f.has(t, kvstore.KeyEmail))
	assert.False(t, f.has(t, kvstore.KeyCart))
	assert.Equal(t, []State{Authenticated, Unauthenticated}, seen)
}

func TestSignIn_RejectsEmptyToken(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.gate.SignIn(context.Background(), "", "a@b.co"))
	assert.False(t, f.gate.Authenticated())
}

type brokenKV struct{ *kvstore.Memory }

func (brokenKV) Set(context.Context, string, string) error { return errors.New("read-only") }

func TestSignIn_TokenWriteFailure(t *testing.T) {
	kv := brokenKV{kvstore.NewMemory()}
	c := cart.New()
	b := cartsync.New(c, kv, nil)
	g := New(kv, b)

	err := g.SignIn(context.Background(), "tok", "a@b.co")

	require.Error(t, err)
	assert.False(t, g.Authenticated())
}

type unreadableKV struct{ *kvstore.Memory }

func (unreadableKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk I/O error")
}

func TestStart_UnreadableTokenStaysSignedOut(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	kv := unreadableKV{kvstore.NewMemory()}
	c := cart.New()
	b := cartsync.New(c, kv, nil)
	b.Start()
	t.Cleanup(func() { b.Close(context.Background()) })
	g := New(kv, b, WithLogger(zap.New(core)))

	g.Start(context.Background())

	assert.Equal(t, Unauthenticated, g.State())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 1, logs.FilterMessage("read session token").Len())

	// The session can still be established afterwards.
	require.NoError(t, g.SignIn(context.Background(), "tok", "a@b.co"))
	assert.True(t, g.Authenticated())
}

type recordingCart struct{ calls []string }

func (r *recordingCart) Resume(context.Context)        { r.calls = append(r.calls, "resume") }
func (r *recordingCart) EraseAndClear(context.Context) { r.calls = append(r.calls, "erase") }

func TestHandleProfileError(t *testing.T) {
	tests := []struct {
		name       string
		anyError   bool
		err        error
		wantLogout bool
	}{
		{"nil", false, nil, false},
		{"unauthorized", false, &apiclient.Error{Status: 401, Message: "Token inválido"}, true},
		{"forbidden", false, &apiclient.Error{Status: 403}, true},
		{"wrapped unauthorized", false, errors.Join(errors.New("profile"), &apiclient.Error{Status: 401}), true},
		{"server error", false, &apiclient.Error{Status: 500}, false},
		{"transport error", false, errors.New("connection refused"), false},
		{"server error, any-error policy", true, &apiclient.Error{Status: 500}, true},
		{"transport error, any-error policy", true, errors.New("connection refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := kvstore.NewMemory()
			ctx := context.Background()
			rec := &recordingCart{}
			g := New(kv, rec, WithLogoutOnAnyProfileError(tt.anyError))
			require.NoError(t, g.SignIn(ctx, "tok", "a@b.co"))

			got := g.HandleProfileError(ctx, tt.err)

			assert.Equal(t, tt.wantLogout, got)
			assert.Equal(t, !tt.wantLogout, g.Authenticated())
			if tt.wantLogout {
				assert.Equal(t, []string{"resume", "erase"}, rec.calls)
			}
		})
	}
}

func TestSubscribeCancel(t *testing.T) {
	g := New(kvstore.NewMemory(), &recordingCart{})
	calls := 0
	cancel := g.Subscribe(func(State) { calls++ })
	cancel()
	cancel()

	require.NoError(t, g.SignIn(context.Background(), "tok", "a@b.co"))
	assert.Zero(t, calls)
}
