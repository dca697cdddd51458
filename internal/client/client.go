// Package client is a typed HTTP client for the order API.
package client

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

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/velora/internal/order"
)

var (
	ErrNetwork      = errors.New("could not reach the order service")
	ErrUnauthorized = errors.New("not authorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("request rejected")
	ErrConflict     = errors.New("conflicting order state")
	ErrServer       = errors.New("order service error")
)

// APIError is a non-2xx response. It unwraps to one of the sentinel errors above.
type APIError struct {
	StatusCode int
	Message    string
	Details    map[string]string
	kind       error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", e.kind, e.StatusCode)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.kind }

type CreateOrderRequest struct {
	OrderItems      []order.OrderItem     `json:"orderItems"`
	ShippingAddress order.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   order.PaymentMethod   `json:"paymentMethod"`
	ItemsPrice      float64               `json:"itemsPrice"`
	ShippingPrice   float64               `json:"shippingPrice"`
	TaxPrice        float64               `json:"taxPrice"`
	TotalPrice      float64               `json:"totalPrice"`
}

type PayRequest struct {
	ID           string `json:"id,omitempty"`
	Status       string `json:"status,omitempty"`
	UpdateTime   string `json:"update_time,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateOrder submits an order. Resubmitting with the same idempotency key
// returns the order created by the first successful attempt.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*order.Order, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}

	var out order.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var out order.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]order.Order, error) {
	var out []order.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/myorders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]order.Order, error) {
	var out []order.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Pay(ctx context.Context, id uuid.UUID, req PayRequest) (*order.Order, error) {
	var out order.Order
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+id.String()+"/pay", req, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Deliver(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var out order.Order
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+id.String()+"/deliver", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Track needs no token.
func (c *Client) Track(ctx context.Context, id, email string) (*order.TrackingView, error) {
	q := url.Values{}
	q.Set("id", id)
	q.Set("email", email)

	var out order.TrackingView
	if err := c.do(ctx, http.MethodGet, "/api/orders/track?"+q.Encode(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload)

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    payload.Error,
		Details:    payload.Details,
		kind:       kindForStatus(resp.StatusCode),
	}
}

func kindForStatus(code int) error {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrNetwork
	default:
		return ErrServer
	}
}
