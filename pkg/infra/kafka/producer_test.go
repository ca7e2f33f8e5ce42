package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/logger"
)

func TestProducer_Notify(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	mp := mocks.NewAsyncProducer(t, cfg)

	var captured model.PurchaseCallback
	mp.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
		return json.Unmarshal(val, &captured)
	})

	p := NewProducerWith(mp, "auto-purchase-events", logger.NewNop())

	err := p.Notify(context.Background(), &model.Order{ID: "ord-1", OrderNumber: "N-1"}, &model.OrchestrationResult{
		OrderID:         "ord-1",
		Success:         true,
		ProviderUsed:    "ebay",
		ProviderOrderID: "EBY-1",
		TotalCost:       42.5,
	})
	require.NoError(t, err)

	msg := <-mp.Successes()
	assert.Equal(t, "auto-purchase-events", msg.Topic)
	assert.Equal(t, sarama.StringEncoder("ord-1"), msg.Key)

	require.NoError(t, p.Close())
	assert.Equal(t, model.CallbackStatusSuccess, captured.Status)
	assert.Equal(t, "N-1", captured.OrderNumber)
	assert.Equal(t, "ebay", captured.ProviderUsed)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil, "events", logger.NewNop())
	assert.Error(t, err)
}
