package catalog

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
	"storefront/internal/domain"
)

// ErrUnavailable matches every failed round trip to the catalog.
var ErrUnavailable = errors.New("catalog unavailable")

// Error describes a failed catalog call.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrUnavailable for any catalog failure and
// domain.ErrNotFound for a 404.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return true
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Client talks to the product API. Calls are single round trips: no retry
// and no caching.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a catalog client rooted at baseURL (e.g.
// http://localhost:3000/api).
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// List fetches every product of the catalog.
func (c *Client) List(ctx context.Context) ([]domain.ProductSnapshot, error) {
	var out []domain.ProductSnapshot
	if err := c.do(ctx, "list products", http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one product by identifier.
func (c *Client) Get(ctx context.Context, id string) (*domain.ProductSnapshot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &Error{Op: "get product", StatusCode: http.StatusNotFound, Err: errors.New("empty product id")}
	}
	var out domain.ProductSnapshot
	if err := c.do(ctx, "get product", http.MethodGet, "/products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return &out, nil
}

// PlaceOrder posts the order and returns the catalog's confirmation. A
// response without an order id is a failure.
func (c *Client) PlaceOrder(ctx context.Context, order domain.Order) (*domain.OrderConfirmation, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}
	var out domain.OrderConfirmation
	if err := c.do(ctx, "place order", http.MethodPost, "/products/order", body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.OrderID) == "" {
		err := &Error{Op: "place order", Err: errors.New("response carries no orderId")}
		c.logger.Warn("catalog order response incomplete", zap.Error(err))
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("catalog request failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("catalog returned error status",
			zap.String("op", op),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn("catalog returned malformed body", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}
