package storefront

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/apiclient"
	"storefront/internal/backend"
	"storefront/internal/contract"
	"storefront/internal/domain"
	"storefront/internal/kvstore"
	"storefront/internal/notify"
	"storefront/internal/seed"
	"storefront/internal/session"
	usersvc "storefront/internal/service/user"
)

type env struct {
	stack *backend.Stack
	mail  *notify.Recorder
	kv    *kvstore.Memory
	api   *apiclient.Client

	profileGets atomic.Int32
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	e := &env{mail: &notify.Recorder{}, kv: kvstore.NewMemory()}
	e.stack = backend.NewMemory(nil, e.mail, usersvc.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, seed.Apply(context.Background(), e.stack.Products, e.stack.UserSvc))
	h := e.stack.Server("", nil, nil).Handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/user" {
			e.profileGets.Add(1)
		}
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	api, err := apiclient.New(srv.URL, apiclient.WithHTTPClient(srv.Client()), apiclient.WithTokenSource(apiclient.StoredToken(e.kv)))
	require.NoError(t, err)
	e.api = api
	return e
}

// app builds and starts an App over the shared kv store.
func (e *env) app(t *testing.T, opts ...Option) *App {
	t.Helper()
	a := New(e.api, e.kv, opts...)
	a.Start(context.Background())
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func (e *env) persisted(t *testing.T, a *App) (string, bool) {
	t.Helper()
	a.bridge.Flush(context.Background())
	v, found, err := e.kv.Get(context.Background(), kvstore.KeyCart)
	require.NoError(t, err)
	return v, found
}

func signedIn(t *testing.T, e *env) *App {
	t.Helper()
	a := e.app(t)
	require.NoError(t, a.SignIn(context.Background(), seed.DemoEmail, seed.DemoPassword))
	return a
}

func TestCheckoutThenConfirm(t *testing.T) {
	e := newEnv(t)
	a := signedIn(t, e)
	ctx := context.Background()

	_, err := a.AddToCart(ctx, "demo-mate", 2)
	require.NoError(t, err)
	_, err = a.AddToCart(ctx, "demo-yerba", 1)
	require.NoError(t, err)
	_, found := e.persisted(t, a)
	require.True(t, found)

	resp, err := a.Checkout(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 46.23, resp.Total, 1e-9)

	assert.Equal(t, 0, a.Cart().Len())
	_, found = e.persisted(t, a)
	assert.False(t, found, "confirmed checkout leaves no snapshot behind")

	order, err := e.stack.Orders.GetByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, seed.DemoEmail, order.Email)
	assert.Len(t, order.Lines, 2)

	_, ok := e.mail.Last(seed.DemoEmail)
	assert.True(t, ok)

	p, err := a.Product(ctx, "demo-mate")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
}

func TestPlaceOrder_KeepsCartUntilConfirmed(t *testing.T) {
	e := newEnv(t)
	a := signedIn(t, e)
	ctx := context.Background()

	_, err := a.AddToCart(ctx, "demo-bombilla", 3)
	require.NoError(t, err)

	_, err = a.PlaceOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Cart().Len())

	a.ConfirmOrder(ctx)
	assert.Equal(t, 0, a.Cart().Len())
	_, found := e.persisted(t, a)
	assert.False(t, found)
}

func TestCheckout_Guards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.app(t)
	_, err := a.Checkout(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	require.NoError(t, a.SignIn(ctx, seed.DemoEmail, seed.DemoPassword))
	_, err = a.Checkout(ctx)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = a.AddToCart(ctx, "demo-mate", 1)
	require.NoError(t, err)
	require.NoError(t, e.kv.Remove(ctx, kvstore.KeyEmail))
	_, err = a.Checkout(ctx)
	assert.ErrorIs(t, err, ErrNoSessionEmail)
	assert.Equal(t, 1, a.Cart().Len())
}

func TestCheckout_StockConflictKeepsCart(t *testing.T) {
	e := newEnv(t)
	a := signedIn(t, e)
	ctx := context.Background()

	_, err := a.AddToCart(ctx, "demo-termo", 5)
	require.NoError(t, err)
	require.NoError(t, a.SetQuantity("demo-termo", 6))

	_, err = a.Checkout(ctx)
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "Not enough stock for one of the products", UserMessage(err))

	assert.Equal(t, 1, a.Cart().Len())
	_, found := e.persisted(t, a)
	assert.True(t, found)
}

func TestStart_RestoresSnapshotForSignedInUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first := signedIn(t, e)
	_, err := first.AddToCart(ctx, "demo-yerba", 4)
	require.NoError(t, err)
	first.Close(ctx)

	second := e.app(t)
	assert.True(t, second.Session().Authenticated())
	line, ok := second.Cart().Find("demo-yerba")
	require.True(t, ok)
	assert.Equal(t, 4, line.Quantity)
}

func TestStart_TokenWithoutUsableSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *string
	}{
		{name: "no snapshot"},
		{name: "corrupt snapshot", snapshot: ptr(`{"_id":`)},
		{name: "empty list", snapshot: ptr(`[]`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			ctx := context.Background()
			require.NoError(t, e.kv.Set(ctx, kvstore.KeyToken, "some-token"))
			if tt.snapshot != nil {
				require.NoError(t, e.kv.Set(ctx, kvstore.KeyCart, *tt.snapshot))
			}

			a := e.app(t)

			assert.Equal(t, session.Authenticated, a.Session().State())
			assert.Equal(t, 0, a.Cart().Len())
		})
	}
}

type unreadableKV struct{ *kvstore.Memory }

func (unreadableKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk I/O error")
}

func TestStart_UnreadableStoreKeepsAppUsable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := New(e.api, unreadableKV{e.kv})
	a.Start(ctx)
	t.Cleanup(func() { a.Close(ctx) })

	assert.False(t, a.Session().Authenticated())
	assert.Equal(t, 0, a.Cart().Len())

	products, err := a.Products(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, products)
	a.SignOut(ctx)
}

func TestAddToCart_ClampsToStock(t *testing.T) {
	e := newEnv(t)
	a := signedIn(t, e)
	ctx := context.Background()

	added, err := a.AddToCart(ctx, "demo-termo", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	added, err = a.AddToCart(ctx, "demo-termo", 4)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	_, err = a.AddToCart(ctx, "demo-termo", 1)
	assert.ErrorIs(t, err, ErrStockLimit)

	line, _ := a.Cart().Find("demo-termo")
	assert.Equal(t, 5, line.Quantity)

	_, err = a.AddToCart(ctx, "demo-matera", 1)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = a.AddToCart(ctx, "demo-mate", 0)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)

	_, err = a.AddToCart(ctx, "nope", 1)
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestChangeQuantity(t *testing.T) {
	e := newEnv(t)
	a := signedIn(t, e)
	ctx := context.Background()

	_, err := a.AddToCart(ctx, "demo-mate", 1)
	require.NoError(t, err)

	q, err := a.ChangeQuantity("demo-mate", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, q)

	q, err = a.ChangeQuantity("demo-mate", 50)
	require.NoError(t, err)
	assert.Equal(t, 12, q, "increments stop at stock")

	q, err = a.ChangeQuantity("demo-mate", -50)
	require.NoError(t, err)
	assert.Equal(t, 1, q, "never below one")

	_, err = a.ChangeQuantity("missing", 1)
	assert.ErrorIs(t, err, ErrNotInCart)
	assert.ErrorIs(t, a.SetQuantity("missing", 2), ErrNotInCart)

	a.RemoveFromCart("demo-mate")
	assert.Equal(t, 0, a.Cart().Len())
}

func TestCartSummary(t *testing.T) {
	e := newEnv(t)
	a := signedIn(t, e)
	ctx := context.Background()

	_, err := a.AddToCart(ctx, "demo-bombilla", 2)
	require.NoError(t, err)
	_, err = a.AddToCart(ctx, "demo-yerba", 3)
	require.NoError(t, err)

	s := a.CartSummary()
	assert.Len(t, s.Items, 2)
	assert.Equal(t, 5, s.Units)
	assert.InDelta(t, 33.75, s.Total, 1e-9)

	a.ClearCart()
	assert.Empty(t, a.CartSummary().Items)
	_, found := e.persisted(t, a)
	assert.False(t, found)
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t)
	a := signedIn(t, e)
	ctx := context.Background()

	current, err := a.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Montevideo", current.Address.City)

	blank := current
	blank.Address.City = "   "
	_, err = a.UpdateProfile(ctx, current, blank)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "city", verr.Field)

	_, err = a.UpdateProfile(ctx, current, current)
	assert.ErrorIs(t, err, ErrNoChanges)

	edited := current
	edited.Address.City = " Punta del Este "
	updated, err := a.UpdateProfile(ctx, current, edited)
	require.NoError(t, err)
	assert.Equal(t, "Punta del Este", updated.Address.City)
	assert.Equal(t, current.Name, updated.Name)
}

func TestUpdateProfile_FetchesProfileOnceAfterUpdate(t *testing.T) {
	e := newEnv(t)
	a := signedIn(t, e)
	ctx := context.Background()

	current, err := a.Profile(ctx)
	require.NoError(t, err)
	e.profileGets.Store(0)

	edited := current
	edited.Name = "Renamed"
	updated, err := a.UpdateProfile(ctx, current, edited)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, int32(1), e.profileGets.Load())
}

func TestProfile_RejectedTokenEndsSession(t *testing.T) {
	e := newEnv(t)
	a := signedIn(t, e)
	ctx := context.Background()

	_, err := a.AddToCart(ctx, "demo-mate", 1)
	require.NoError(t, err)
	require.NoError(t, e.kv.Set(ctx, kvstore.KeyToken, "expired"))

	_, err = a.Profile(ctx)
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)

	assert.False(t, a.Session().Authenticated())
	assert.Equal(t, 0, a.Cart().Len())
	for _, key := range []string{kvstore.KeyToken, kvstore.KeyEmail, kvstore.KeyCart} {
		_, found, err := e.kv.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, key)
	}
}

var resetCode = regexp.MustCompile(`\b(\d{6})\b`)

func TestAccountFlow(t *testing.T) {
	e := newEnv(t)
	a := e.app(t)
	ctx := context.Background()

	req := contract.RegisterRequest{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "secret1",
		Address:  domain.Address{Street: "Calle 1", City: "Salto", Department: "Salto", Description: "Casa"},
	}
	missing := req
	missing.Address.Street = ""
	_, err := a.Register(ctx, missing)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "street", verr.Field)

	msg, err := a.Register(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	assert.False(t, a.Session().Authenticated(), "registering does not sign in")

	_, err = a.Register(ctx, req)
	assert.Equal(t, "Email already registered", UserMessage(err))

	require.NoError(t, a.SignIn(ctx, req.Email, req.Password))
	email, err := a.Session().Email(ctx)
	require.NoError(t, err)
	assert.Equal(t, req.Email, email)

	a.SignOut(ctx)
	assert.False(t, a.Session().Authenticated())

	_, err = a.RequestPasswordReset(ctx, req.Email)
	require.NoError(t, err)
	mail, ok := e.mail.Last(req.Email)
	require.True(t, ok)
	m := resetCode.FindStringSubmatch(mail.Body)
	require.Len(t, m, 2)

	_, err = a.ResetPassword(ctx, req.Email, m[1], "brand-new")
	require.NoError(t, err)

	err = a.SignIn(ctx, req.Email, req.Password)
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
	assert.Equal(t, "Invalid email or password", UserMessage(err))
	require.NoError(t, a.SignIn(ctx, req.Email, "brand-new"))
}

func TestSignIn_RequiresCredentials(t *testing.T) {
	e := newEnv(t)
	a := e.app(t)
	ctx := context.Background()

	var verr *ValidationError
	require.ErrorAs(t, a.SignIn(ctx, " ", "x"), &verr)
	assert.Equal(t, "email", verr.Field)
	require.ErrorAs(t, a.SignIn(ctx, "a@b.co", ""), &verr)
	assert.Equal(t, "password", verr.Field)

	_, err := a.ResetPassword(ctx, "a@b.co", "", "x")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "reset code", verr.Field)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrEmptyCart, "Your cart is empty."},
		{ErrNoChanges, "No changes were made to your profile."},
		{required("city"), `The field "city" is required.`},
		{&apiclient.Error{Status: 500, Message: "boom"}, "The server had a problem. Please try again later."},
		{&apiclient.Error{Status: 404, Message: "Not found"}, "Not found"},
		{&apiclient.Error{Status: 401}, "Your session has expired. Please sign in again."},
		{context.DeadlineExceeded, "Could not reach the server. Check your connection and try again."},
		{errors.New("weird"), "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UserMessage(tt.err), "%v", tt.err)
	}
}

func ptr(s string) *string {
	return &s
}
