package model

import "time"

// Callback status values
const (
	CallbackStatusSuccess   = "SUCCESS"
	CallbackStatusFailed    = "FAILED"
	CallbackStatusDuplicate = "DUPLICATE"
)

// PurchaseCallback is the outcome message published after an orchestration.
// The same body goes to the callback queue, the pub/sub channel and the event topic.
type PurchaseCallback struct {
	RequestID          string            `json:"request_id,omitempty"`
	OrderID            string            `json:"order_id"`
	OrderNumber        string            `json:"order_number,omitempty"`
	Status             string            `json:"status"`
	ProviderUsed       string            `json:"provider_used,omitempty"`
	ProviderOrderID    string            `json:"provider_order_id,omitempty"`
	ConfirmationStatus ConfirmationState `json:"confirmation_status,omitempty"`
	TotalCost          float64           `json:"total_cost,omitempty"`
	EstimatedDelivery  *time.Time        `json:"estimated_delivery,omitempty"`
	AttemptedProviders []string          `json:"attempted_providers,omitempty"`
	Error              string            `json:"error,omitempty"`
	ProcessedAt        int64             `json:"processed_at"`
}

// NewPurchaseCallback builds the callback of a finished orchestration.
func NewPurchaseCallback(order *Order, result *OrchestrationResult, requestID string, at time.Time) *PurchaseCallback {
	status := CallbackStatusFailed
	switch {
	case result.Duplicate:
		status = CallbackStatusDuplicate
	case result.Success:
		status = CallbackStatusSuccess
	}

	cb := &PurchaseCallback{
		RequestID:          requestID,
		OrderID:            result.OrderID,
		Status:             status,
		ProviderUsed:       result.ProviderUsed,
		ProviderOrderID:    result.ProviderOrderID,
		ConfirmationStatus: result.ConfirmationStatus,
		TotalCost:          result.TotalCost,
		EstimatedDelivery:  result.EstimatedDelivery,
		AttemptedProviders: result.AttemptedProviders,
		Error:              result.Error,
		ProcessedAt:        at.Unix(),
	}
	if order != nil {
		cb.OrderNumber = order.OrderNumber
	}
	return cb
}
