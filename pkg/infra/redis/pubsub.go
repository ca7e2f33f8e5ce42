package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/logger"
)

// PubSub publishes purchase outcomes on a Redis channel.
type PubSub struct {
	client  redis.UniversalClient
	channel string
}

// NewPubSub creates a PubSub publishing on channel
func NewPubSub(client redis.UniversalClient, channel string) *PubSub {
	return &PubSub{
		client:  client,
		channel: channel,
	}
}

// PublishPurchaseComplete publishes one callback message
func (p *PubSub) PublishPurchaseComplete(ctx context.Context, callback *model.PurchaseCallback) error {
	msgJSON, err := json.Marshal(callback)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, msgJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Notify publishes the outcome of a finished orchestration
func (p *PubSub) Notify(ctx context.Context, order *model.Order, result *model.OrchestrationResult) error {
	requestID, _ := ctx.Value(logger.KeyTraceID).(string)
	return p.PublishPurchaseComplete(ctx, model.NewPurchaseCallback(order, result, requestID, time.Now()))
}

// Subscribe returns a subscription to the outcome channel
func (p *PubSub) Subscribe(ctx context.Context) *redis.PubSub {
	return p.client.Subscribe(ctx, p.channel)
}
