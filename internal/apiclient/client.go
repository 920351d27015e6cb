// Package apiclient talks to the storefront backend over HTTP/JSON.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/contract"
	"storefront/internal/domain"
	"storefront/internal/kvstore"
	"storefront/internal/logging"
)

// DefaultTimeout bounds every request when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// ErrUnauthorized matches any *Error carrying 401 or 403.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && (e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

// TokenSource yields the bearer token for authenticated calls; an empty token
// means the call goes out without an Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StoredToken reads the session token from the key-value store on every call.
func StoredToken(kv kvstore.Store) TokenSource {
	return TokenFunc(func(ctx context.Context) (string, error) {
		v, _, err := kv.Get(ctx, kvstore.KeyToken)
		return v, err
	})
}

// Client is safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	logger *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(l) }
}

// New builds a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("apiclient")
	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// ImageURL resolves a product image path against the backend root. Absolute
// URLs are returned unchanged.
func (c *Client) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() {
		return path
	}
	return c.base.JoinPath(ref.Path).String()
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.do(ctx, http.MethodGet, "/products", true, nil, &out); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if out == nil {
		out = []domain.Product{}
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), true, nil, &out); err != nil {
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return out, nil
}

func (c *Client) Checkout(ctx context.Context, req contract.CheckoutRequest) (contract.CheckoutResponse, error) {
	var out contract.CheckoutResponse
	if err := c.do(ctx, http.MethodPost, "/checkout", true, req, &out); err != nil {
		return contract.CheckoutResponse{}, fmt.Errorf("checkout: %w", err)
	}
	return out, nil
}

func (c *Client) GetProfile(ctx context.Context) (domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodGet, "/user", true, nil, &out); err != nil {
		return domain.User{}, fmt.Errorf("get profile: %w", err)
	}
	return out, nil
}

// UpdateProfile sends only the fields set in u.
func (c *Client) UpdateProfile(ctx context.Context, u contract.ProfileUpdate) (domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodPut, "/user", true, u, &out); err != nil {
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, req contract.RegisterRequest) (contract.Ack, error) {
	var out contract.Ack
	if err := c.do(ctx, http.MethodPost, "/register", false, req, &out); err != nil {
		return contract.Ack{}, fmt.Errorf("register: %w", err)
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, req contract.LoginRequest) (contract.LoginResponse, error) {
	var out contract.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", false, req, &out); err != nil {
		return contract.LoginResponse{}, fmt.Errorf("login: %w", err)
	}
	return out, nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, req contract.ResetRequest) (contract.Ack, error) {
	var out contract.Ack
	if err := c.do(ctx, http.MethodPost, "/request", false, req, &out); err != nil {
		return contract.Ack{}, fmt.Errorf("request password reset: %w", err)
	}
	return out, nil
}

func (c *Client) ResetPassword(ctx context.Context, req contract.ResetConfirm) (contract.Ack, error) {
	var out contract.Ack
	if err := c.do(ctx, http.MethodPost, "/reset", false, req, &out); err != nil {
		return contract.Ack{}, fmt.Errorf("reset password: %w", err)
	}
	return out, nil
}

// do validates and sends in, then decodes and validates the response into
// out. authed requests carry the bearer token when one is stored.
func (c *Client) do(ctx context.Context, method, path string, authed bool, in, out any) error {
	var body io.Reader
	if in != nil {
		if err := contract.Validate(in); err != nil {
			return err
		}
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.logger.Warn("read session token", zap.Error(err))
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := validateResponse(out); err != nil {
		return fmt.Errorf("response: %w", err)
	}
	return nil
}

func validateResponse(out any) error {
	switch v := out.(type) {
	case *[]domain.Product:
		return contract.Validate(*v)
	case *domain.Product:
		return contract.Validate(*v)
	case *domain.User:
		return contract.Validate(*v)
	case *contract.LoginResponse:
		return contract.Validate(*v)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body contract.ErrorBody
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		apiErr.Message = body.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
