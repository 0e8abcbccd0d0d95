package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/storecraft-labs/order-intake/internal/application/checkout"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
)

const (
	defaultBaseURL = "https://api.razorpay.com/v1"
	defaultTimeout = 10 * time.Second
)

// Client creates provider orders over the Razorpay Orders API using the
// store's own key pair via HTTP basic auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

type Option func(*Client)

// WithBaseURL overrides the provider endpoint, for tests and sandboxes.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

func (c *Client) CreateOrder(ctx context.Context, creds store.Credentials, amount int64, currency, receipt string) (*checkout.GatewayOrder, error) {
	if !creds.Configured() {
		return nil, store.ErrCredentialsMissing
	}

	body, err := json.Marshal(createOrderRequest{Amount: amount, Currency: currency, Receipt: receipt})
	if err != nil {
		return nil, fmt.Errorf("razorpay: marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("razorpay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(creds.KeyID, creds.KeySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("razorpay: create order: status %d: %s", resp.StatusCode, detail)
	}

	var gatewayOrder checkout.GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&gatewayOrder); err != nil {
		return nil, fmt.Errorf("razorpay: decode order response: %w", err)
	}
	if gatewayOrder.ID == "" {
		return nil, fmt.Errorf("razorpay: order response missing id")
	}
	return &gatewayOrder, nil
}
