package orderservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/logger"
	"oip/autopurchase/pkg/timeutil"
)

// Config configures the client
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	RateLimit  float64 // requests per second, 0 = unlimited
	RateBurst  int
}

// Client talks to the external order service.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	sleep      timeutil.SleepFunc
	logger     logger.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSleep replaces the wait between retries
func WithSleep(sleep timeutil.SleepFunc) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// NewClient creates a Client
func NewClient(cfg Config, log logger.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		sleep:      timeutil.Sleep,
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func orderPath(orderID, suffix string) string {
	return "/orders/" + url.PathEscape(orderID) + suffix
}

// UpdateOrderStatus PUT /orders/{id}/status
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status string) *Response {
	return c.request(ctx, http.MethodPut, orderPath(orderID, "/status"), statusBody{Status: status})
}

// UpdateProviderInfo PUT /orders/{id}/provider-info
func (c *Client) UpdateProviderInfo(ctx context.Context, orderID string, info ProviderInfo) *Response {
	return c.request(ctx, http.MethodPut, orderPath(orderID, "/provider-info"), info)
}

// MarkProcessing POST /orders/{id}/mark-processing
func (c *Client) MarkProcessing(ctx context.Context, orderID string) *Response {
	return c.request(ctx, http.MethodPost, orderPath(orderID, "/mark-processing"), nil)
}

// UpdateTracking PUT /orders/{id}/tracking
func (c *Client) UpdateTracking(ctx context.Context, orderID string, update TrackingUpdate) *Response {
	return c.request(ctx, http.MethodPut, orderPath(orderID, "/tracking"), update)
}

// GetOrder GET /orders/{id}
func (c *Client) GetOrder(ctx context.Context, orderID string) (*model.Order, *Response) {
	resp := c.request(ctx, http.MethodGet, orderPath(orderID, ""), nil)
	if !resp.Success {
		return nil, resp
	}

	var order model.Order
	if err := resp.Decode(&order); err != nil {
		return nil, decodeFailure(resp, err)
	}
	return &order, resp
}

// GetPendingOrders GET /orders/auto-purchase/pending
func (c *Client) GetPendingOrders(ctx context.Context) ([]model.Order, *Response) {
	resp := c.request(ctx, http.MethodGet, "/orders/auto-purchase/pending", nil)
	if !resp.Success {
		return nil, resp
	}

	var orders []model.Order
	if err := resp.Decode(&orders); err != nil {
		return nil, decodeFailure(resp, err)
	}
	return orders, resp
}

// ReportPurchaseSuccess POST /orders/{id}/auto-purchase/success
func (c *Client) ReportPurchaseSuccess(ctx context.Context, orderID string, report PurchaseSuccess) *Response {
	return c.request(ctx, http.MethodPost, orderPath(orderID, "/auto-purchase/success"), report)
}

// ReportPurchaseFailure POST /orders/{id}/auto-purchase/failure
func (c *Client) ReportPurchaseFailure(ctx context.Context, orderID string, report PurchaseFailure) *Response {
	return c.request(ctx, http.MethodPost, orderPath(orderID, "/auto-purchase/failure"), report)
}

// HealthCheck GET /health
func (c *Client) HealthCheck(ctx context.Context) *Response {
	return c.request(ctx, http.MethodGet, "/health", nil)
}

func decodeFailure(resp *Response, err error) *Response {
	return &Response{
		Success:    false,
		Error:      fmt.Sprintf("decode response failed: %v", err),
		StatusCode: resp.StatusCode,
	}
}

// request sends one call with bounded retries. 4xx answers are final.
func (c *Client) request(ctx context.Context, method, path string, body interface{}) *Response {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Response{Success: false, Error: fmt.Sprintf("marshal request failed: %v", err)}
		}
		payload = data
	}

	var resp *Response
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return &Response{Success: false, Error: fmt.Sprintf("rate limiter: %v", err)}
		}

		resp = c.do(ctx, method, path, payload)
		if resp.Success || !retryable(resp.StatusCode) {
			return resp
		}

		if attempt == c.maxRetries {
			break
		}

		c.logger.Warnf(ctx, "[OrderService] %s %s attempt %d/%d failed: %s",
			method, path, attempt, c.maxRetries, resp.Error)
		if err := c.sleep(ctx, c.retryDelay*time.Duration(attempt)); err != nil {
			return &Response{Success: false, Error: err.Error()}
		}
	}

	c.logger.Errorf(ctx, "[OrderService] %s %s failed after %d attempts: %s", method, path, c.maxRetries, resp.Error)
	return resp
}

// retryable reports whether a call that ended with statusCode may be repeated.
// 0 means the request never got an answer.
func retryable(statusCode int) bool {
	return statusCode == 0 || statusCode >= http.StatusInternalServerError
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) *Response {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Response{Success: false, Error: fmt.Sprintf("create request failed: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return &Response{Success: false, Error: fmt.Sprintf("request failed: %v", err)}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &Response{Success: false, Error: fmt.Sprintf("read response failed: %v", err), StatusCode: httpResp.StatusCode}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return &Response{
			Success:    false,
			Error:      errorMessage(httpResp.StatusCode, data),
			StatusCode: httpResp.StatusCode,
		}
	}

	return &Response{
		Success:    true,
		Data:       unwrapData(data),
		StatusCode: httpResp.StatusCode,
	}
}

// unwrapData accepts both a bare payload and a {"data": ...} envelope.
func unwrapData(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if trimmed[0] == '{' && json.Unmarshal(trimmed, &envelope) == nil && len(envelope.Data) > 0 {
		return envelope.Data
	}
	return json.RawMessage(trimmed)
}

func errorMessage(statusCode int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fmt.Sprintf("HTTP %d: %s", statusCode, http.StatusText(statusCode))
}
