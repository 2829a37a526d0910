// Package cartapi is the storefront's REST client for the cart, session and
// catalog endpoints. Every request carries the session cookie held in the
// client's cookie jar.
package cartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	defaultQuantity             = 1
	responseBodyReadLimit int64 = 4096
)

var (
	errBaseURLRequired = errors.New("cart api base url is required")
	validate           = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Client wraps the cart REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	jar        http.CookieJar
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. A cookie jar is attached
// when the provided client has none so credentials are always sent.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			clone := *client
			c.httpClient = &clone
		}
	}
}

// WithTimeout sets an overall per-request timeout. Zero keeps the HTTP
// client's default of no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithCookieJar shares a cookie jar, e.g. to reuse a session across clients.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.jar = jar
	}
}

// NewClient builds a cart API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse cart api base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("cart api base url %q must be absolute", baseURL)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.timeout > 0 {
		client.httpClient.Timeout = client.timeout
	}
	if client.jar != nil {
		client.httpClient.Jar = client.jar
	}
	if client.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		client.httpClient.Jar = jar
	}

	return client, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetCart fetches the session's cart. A session without a cart yields an
// envelope with a nil Cart and zero totals.
func (c *Client) GetCart(ctx context.Context) (*types.CartResponse, error) {
	var out types.CartResponse
	if err := c.do(ctx, http.MethodGet, "cart", nil, &out, "get cart"); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddToCart adds quantity units of a product. A zero quantity means one.
func (c *Client) AddToCart(ctx context.Context, productID int64, quantity int) (*types.CartResponse, error) {
	if quantity == 0 {
		quantity = defaultQuantity
	}
	payload := types.AddCartItemRequest{ProductID: productID, Quantity: quantity}
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	var out types.CartResponse
	if err := c.do(ctx, http.MethodPost, "cart/items", payload, &out, "add cart item"); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCartItem sets the quantity of a cart line. Quantities below one are
// rejected without a request; removal goes through RemoveCartItem.
func (c *Client) UpdateCartItem(ctx context.Context, cartItemID int64, quantity int) (*types.CartResponse, error) {
	if err := requireItemID(cartItemID); err != nil {
		return nil, err
	}
	payload := types.UpdateCartItemRequest{Quantity: quantity}
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	var out types.CartResponse
	if err := c.do(ctx, http.MethodPut, itemPath(cartItemID), payload, &out, "update cart item"); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveCartItem deletes a cart line.
func (c *Client) RemoveCartItem(ctx context.Context, cartItemID int64) (*types.CartResponse, error) {
	if err := requireItemID(cartItemID); err != nil {
		return nil, err
	}

	var out types.CartResponse
	if err := c.do(ctx, http.MethodDelete, itemPath(cartItemID), nil, &out, "remove cart item"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearCart removes every line from the cart.
func (c *Client) ClearCart(ctx context.Context) (*types.CartResponse, error) {
	var out types.CartResponse
	if err := c.do(ctx, http.MethodDelete, "cart", nil, &out, "clear cart"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login opens a session; the session cookie lands in the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (*types.SessionInfo, error) {
	payload := types.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	var out types.SessionInfo
	if err := c.do(ctx, http.MethodPost, "auth/session", payload, &out, "login"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout closes the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "auth/session", nil, nil, "logout")
}

// Session reports the caller's authentication state. An unauthenticated
// caller is not an error.
func (c *Client) Session(ctx context.Context) (*types.SessionInfo, error) {
	var out types.SessionInfo
	err := c.do(ctx, http.MethodGet, "auth/session", nil, &out, "get session")
	if pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		return &types.SessionInfo{Authenticated: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProducts returns the active catalog.
func (c *Client) ListProducts(ctx context.Context) ([]types.Product, error) {
	var out []types.Product
	if err := c.do(ctx, http.MethodGet, "products", nil, &out, "list products"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any, op string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "cart api client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("marshal %s request", op))
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("build %s request", op))
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", op))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, op)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("decode %s response", op))
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}

func itemPath(cartItemID int64) string {
	return "cart/items/" + strconv.FormatInt(cartItemID, 10)
}

func requireItemID(cartItemID int64) error {
	if cartItemID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	return nil
}
