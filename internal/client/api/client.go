// Package api is the storefront HTTP client used by the shopper CLI.
//
// Catalog reads never fail: when the server cannot be reached or answers
// with an error, the fallback collection is returned instead. Authorized
// calls that are refused with 403 refresh the access token once and retry.
package api

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
	"strings"
	"time"

	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/service"
	"github.com/velora-shop/storefront-backend/pkg/logger"
)

// ErrReauthenticate means the session cannot be renewed; the user has to
// log in again.
var ErrReauthenticate = errors.New("session expired, please log in again")

// ErrProductNotFound is returned by GetProduct when neither the server nor
// the fallback collection knows the id.
var ErrProductNotFound = errors.New("product not found")

// Error is a non-2xx answer from the server.
type Error struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// User is the account as the auth endpoints return it.
type User struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequest struct {
	Customer      model.CustomerInfo `json:"customer"`
	PaymentMethod string             `json:"paymentMethod"`
	Items         []CheckoutItem     `json:"items"`
}

type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
}

func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}, nil
}

// SessionCookies returns the cookies the jar would send to the server.
func (c *Client) SessionCookies() []*http.Cookie {
	return c.httpClient.Jar.Cookies(c.baseURL)
}

// RestoreSession loads previously saved cookies into the jar.
func (c *Client) RestoreSession(cookies []*http.Cookie) {
	restored := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		restored = append(restored, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: "/"})
	}
	c.httpClient.Jar.SetCookies(c.baseURL, restored)
}

// ClearSession drops every cookie the jar holds for the server.
func (c *Client) ClearSession() {
	expired := make([]*http.Cookie, 0)
	for _, ck := range c.SessionCookies() {
		expired = append(expired, &http.Cookie{Name: ck.Name, Path: "/", MaxAge: -1})
	}
	c.httpClient.Jar.SetCookies(c.baseURL, expired)
}

// GetProducts returns the catalog, or the fallback collection when it
// cannot be loaded or is empty.
func (c *Client) GetProducts(ctx context.Context) []model.Product {
	var products []model.Product
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/products", nil, &products); err != nil {
		logger.Debug("Catalog unavailable, using fallback collection", map[string]interface{}{
			"error": err.Error(),
		})
		return FallbackProducts()
	}
	if len(products) == 0 {
		return FallbackProducts()
	}
	return products
}

// GetNewArrivals returns the latest new arrivals, or the fallback
// collection when they cannot be loaded.
func (c *Client) GetNewArrivals(ctx context.Context) []model.Product {
	var products []model.Product
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/products/new-arrivals", nil, &products); err != nil {
		logger.Debug("New arrivals unavailable, using fallback collection", map[string]interface{}{
			"error": err.Error(),
		})
		return FallbackProducts()
	}
	return products
}

// GetProduct loads one product. When the server is unreachable the
// fallback collection is searched.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var resp struct {
		Product model.Product `json:"product"`
	}
	err := c.doRequest(ctx, http.MethodGet, "/api/v1/products/"+url.PathEscape(id), nil, &resp)
	if err == nil {
		return &resp.Product, nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if p, ok := findFallback(id); ok {
		return p, nil
	}
	return nil, ErrProductNotFound
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	req := map[string]string{"email": email, "password": password}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp.User, nil
}

// Refresh asks for a new access token using the refresh cookie.
func (c *Client) Refresh(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", nil, nil)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.authorized(ctx, http.MethodGet, "/api/v1/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.authorized(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
}

func (c *Client) Analytics(ctx context.Context, rangeToken string) (*service.AnalyticsReport, error) {
	path := "/api/v1/admin/analytics"
	if rangeToken != "" {
		path += "?range=" + url.QueryEscape(rangeToken)
	}
	var report service.AnalyticsReport
	if err := c.authorized(ctx, http.MethodGet, path, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*model.Order, error) {
	var resp struct {
		Order model.Order `json:"order"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/checkout", req, &resp); err != nil {
		return nil, fmt.Errorf("checkout failed: %w", err)
	}
	return &resp.Order, nil
}

// authorized performs the request and, on 403, refreshes the session and
// retries exactly once.
func (c *Client) authorized(ctx context.Context, method, path string, body, result interface{}) error {
	err := c.doRequest(ctx, method, path, body, result)

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		return err
	}

	if refreshErr := c.Refresh(ctx); refreshErr != nil {
		logger.Debug("Session refresh failed", map[string]interface{}{
			"error": refreshErr.Error(),
		})
		return ErrReauthenticate
	}
	return c.doRequest(ctx, method, path, body, result)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
