package orderservice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oip/autopurchase/pkg/logger"
)

type captured struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

type fakeServer struct {
	mu       sync.Mutex
	requests []captured
	replies  []func(w http.ResponseWriter)
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, captured{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	reply := func(w http.ResponseWriter) { w.WriteHeader(http.StatusOK) }
	if len(s.replies) > 0 {
		reply = s.replies[0]
		if len(s.replies) > 1 {
			s.replies = s.replies[1:]
		}
	}
	s.mu.Unlock()

	reply(w)
}

func status(code int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}
}

func newTestClient(t *testing.T, srv *fakeServer) (*Client, *[]time.Duration) {
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	var sleeps []time.Duration
	c := NewClient(Config{BaseURL: ts.URL + "/", APIKey: "secret", MaxRetries: 3, RetryDelay: time.Second},
		logger.NewNop(),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		}))
	return c, &sleeps
}

func TestUpdateOrderStatus(t *testing.T) {
	srv := &fakeServer{}
	c, sleeps := newTestClient(t, srv)

	resp := c.UpdateOrderStatus(context.Background(), "ord 1", "processing")

	require.True(t, resp.Success)
	require.Len(t, srv.requests, 1)
	req := srv.requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/orders/ord%201/status", req.Path)
	assert.Equal(t, "Bearer secret", req.Auth)
	assert.JSONEq(t, `{"status":"processing"}`, req.Body)
	assert.Empty(t, *sleeps)
}

func TestClientErrorIsNotRetried(t *testing.T) {
	srv := &fakeServer{replies: []func(http.ResponseWriter){
		status(http.StatusNotFound, `{"error":"order not found"}`),
	}}
	c, sleeps := newTestClient(t, srv)

	resp := c.MarkProcessing(context.Background(), "missing")

	assert.False(t, resp.Success)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "order not found", resp.Error)
	assert.Len(t, srv.requests, 1)
	assert.Empty(t, *sleeps)
}

func TestRateLimitIsNotRetried(t *testing.T) {
	srv := &fakeServer{replies: []func(http.ResponseWriter){
		status(http.StatusTooManyRequests, `{"message":"slow down"}`),
	}}
	c, _ := newTestClient(t, srv)

	resp := c.HealthCheck(context.Background())

	assert.False(t, resp.Success)
	assert.Equal(t, "slow down", resp.Error)
	assert.Len(t, srv.requests, 1)
}

func TestServerErrorIsRetried(t *testing.T) {
	srv := &fakeServer{replies: []func(http.ResponseWriter){
		status(http.StatusBadGateway, ``),
		status(http.StatusServiceUnavailable, `{}`),
		status(http.StatusOK, `{"ok":true}`),
	}}
	c, sleeps := newTestClient(t, srv)

	resp := c.HealthCheck(context.Background())

	require.True(t, resp.Success)
	assert.Len(t, srv.requests, 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *sleeps)
}

func TestServerErrorExhaustsRetries(t *testing.T) {
	srv := &fakeServer{replies: []func(http.ResponseWriter){
		status(http.StatusInternalServerError, `not json`),
	}}
	c, sleeps := newTestClient(t, srv)

	resp := c.HealthCheck(context.Background())

	assert.False(t, resp.Success)
	assert.Equal(t, "HTTP 500: Internal Server Error", resp.Error)
	assert.Len(t, srv.requests, 3)
	assert.Len(t, *sleeps, 2)
}

func TestUnreachableService(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	c := NewClient(Config{BaseURL: base, MaxRetries: 2}, logger.NewNop(),
		WithSleep(func(ctx context.Context, d time.Duration) error { return nil }))
	resp := c.HealthCheck(context.Background())

	assert.False(t, resp.Success)
	assert.Zero(t, resp.StatusCode)
	assert.Contains(t, resp.Error, "request failed")
}

func TestGetPendingOrdersUnwrapsEnvelope(t *testing.T) {
	body := `{"data":[{"id":"o-1","order_number":"N-1","items":[{"sku":"SKU-1","quantity":2}],` +
		`"shipping_address":{"country":"ES","city":"Madrid"}}]}`
	srv := &fakeServer{replies: []func(http.ResponseWriter){status(http.StatusOK, body)}}
	c, _ := newTestClient(t, srv)

	orders, resp := c.GetPendingOrders(context.Background())

	require.True(t, resp.Success)
	require.Len(t, orders, 1)
	assert.Equal(t, "o-1", orders[0].ID)
	assert.Equal(t, "SKU-1", orders[0].Items[0].SKU)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
	assert.Equal(t, "ES", orders[0].ShippingAddress.Country)
	assert.Equal(t, "/orders/auto-purchase/pending", srv.requests[0].Path)
}

func TestGetOrderBarePayload(t *testing.T) {
	srv := &fakeServer{replies: []func(http.ResponseWriter){
		status(http.StatusOK, `{"id":"o-2","items":[],"shipping_address":{"country":"FR"}}`),
	}}
	c, _ := newTestClient(t, srv)

	order, resp := c.GetOrder(context.Background(), "o-2")

	require.True(t, resp.Success)
	assert.Equal(t, "o-2", order.ID)
	assert.Equal(t, "FR", order.ShippingAddress.Country)
}

func TestGetPendingOrdersDecodeFailure(t *testing.T) {
	srv := &fakeServer{replies: []func(http.ResponseWriter){status(http.StatusOK, `{"data":"nope"}`)}}
	c, _ := newTestClient(t, srv)

	orders, resp := c.GetPendingOrders(context.Background())

	assert.Nil(t, orders)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "decode response failed")
}

func TestReportPurchaseFailureBody(t *testing.T) {
	srv := &fakeServer{}
	c, _ := newTestClient(t, srv)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	resp := c.ReportPurchaseFailure(context.Background(), "o-3", PurchaseFailure{
		ErrorMessage:     "all 3 providers failed",
		ProviderAttempts: []string{"amazon", "ebay"},
		FailedAt:         at,
	})
	require.True(t, resp.Success)

	req := srv.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/orders/o-3/auto-purchase/failure", req.Path)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.Equal(t, "all 3 providers failed", body["error_message"])
	assert.Equal(t, []interface{}{"amazon", "ebay"}, body["provider_attempts"])
	assert.Equal(t, "2024-03-01T10:00:00Z", body["failed_at"])
}

func TestCancelledContextStopsRetries(t *testing.T) {
	srv := &fakeServer{replies: []func(http.ResponseWriter){status(http.StatusServiceUnavailable, ``)}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(Config{BaseURL: ts.URL, MaxRetries: 5}, logger.NewNop(),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}))

	resp := c.HealthCheck(ctx)

	assert.False(t, resp.Success)
	assert.Equal(t, context.Canceled.Error(), resp.Error)
	assert.Len(t, srv.requests, 1)
}
