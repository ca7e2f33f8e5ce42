package lmstfy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/logger"
)

// callbackTTL keeps unconsumed callbacks for a day
const callbackTTL = 24 * time.Hour

// Publisher is the publishing half of Client
type Publisher interface {
	Publish(queue string, data []byte, ttl, delay time.Duration) (string, error)
}

// CallbackNotifier publishes purchase outcomes on the callback queue.
type CallbackNotifier struct {
	publisher Publisher
	queue     string
	logger    logger.Logger
}

// NewCallbackNotifier creates a CallbackNotifier
func NewCallbackNotifier(publisher Publisher, queue string, log logger.Logger) *CallbackNotifier {
	return &CallbackNotifier{
		publisher: publisher,
		queue:     queue,
		logger:    log,
	}
}

// Notify publishes the outcome of one order
func (n *CallbackNotifier) Notify(ctx context.Context, order *model.Order, result *model.OrchestrationResult) error {
	requestID, _ := ctx.Value(logger.KeyTraceID).(string)
	data, err := json.Marshal(model.NewPurchaseCallback(order, result, requestID, time.Now()))
	if err != nil {
		return fmt.Errorf("marshal callback failed: %w", err)
	}

	jobID, err := n.publisher.Publish(n.queue, data, callbackTTL, 0)
	if err != nil {
		return err
	}

	n.logger.Debugf(ctx, "[Callback] order %s published to %s as job %s", result.OrderID, n.queue, jobID)
	return nil
}
