package lmstfy

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/logger"
)

type fakePublisher struct {
	queue string
	data  []byte
	ttl   time.Duration
	err   error
}

func (p *fakePublisher) Publish(queue string, data []byte, ttl, delay time.Duration) (string, error) {
	p.queue, p.data, p.ttl = queue, data, ttl
	return "job-1", p.err
}

func TestCallbackNotifierPublishes(t *testing.T) {
	pub := &fakePublisher{}
	n := NewCallbackNotifier(pub, "auto_purchase_callback", logger.NewNop())
	ctx := logger.WithTraceID(context.Background(), "req-9")

	order := &model.Order{ID: "o-1", OrderNumber: "N-1"}
	err := n.Notify(ctx, order, &model.OrchestrationResult{
		OrderID:         "o-1",
		Success:         true,
		ProviderUsed:    "ebay",
		ProviderOrderID: "EBY-1",
		TotalCost:       99.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "auto_purchase_callback", pub.queue)
	assert.Equal(t, callbackTTL, pub.ttl)

	var cb model.PurchaseCallback
	require.NoError(t, json.Unmarshal(pub.data, &cb))
	assert.Equal(t, "req-9", cb.RequestID)
	assert.Equal(t, "N-1", cb.OrderNumber)
	assert.Equal(t, model.CallbackStatusSuccess, cb.Status)
	assert.Equal(t, "EBY-1", cb.ProviderOrderID)
	assert.Equal(t, 99.5, cb.TotalCost)
}

func TestCallbackNotifierPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("lmstfy publish failed: 503")}
	n := NewCallbackNotifier(pub, "q", logger.NewNop())

	err := n.Notify(context.Background(), nil, &model.OrchestrationResult{OrderID: "o-1"})
	assert.EqualError(t, err, "lmstfy publish failed: 503")
}

func TestNewClientNeedsHost(t *testing.T) {
	_, err := NewClient("", 7777, "oip", "")
	assert.Error(t, err)

	c, err := NewClient("127.0.0.1", 7777, "oip", "token")
	require.NoError(t, err)
	assert.Equal(t, "oip", c.namespace)
}
