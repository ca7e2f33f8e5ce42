package orderservice

import (
	"encoding/json"
	"time"
)

// Response is the uniform envelope of every order service call.
// Transport failures are folded into it so callers never handle raw HTTP errors.
type Response struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
}

// Decode unmarshals Data into out
func (r *Response) Decode(out interface{}) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, out)
}

type statusBody struct {
	Status string `json:"status"`
}

// ProviderInfo is the body of PUT /orders/{id}/provider-info
type ProviderInfo struct {
	ProviderOrderID   string     `json:"provider_order_id"`
	ProviderName      string     `json:"provider_name"`
	TrackingNumber    string     `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	ActualCost        *float64   `json:"actual_cost,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
}

// TrackingUpdate is the body of PUT /orders/{id}/tracking
type TrackingUpdate struct {
	TrackingNumber    string     `json:"tracking_number"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

// PurchaseSuccess is the body of POST /orders/{id}/auto-purchase/success
type PurchaseSuccess struct {
	ProviderOrderID   string    `json:"provider_order_id"`
	ProviderName      string    `json:"provider_name"`
	TotalCost         float64   `json:"total_cost"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
	PurchasedAt       time.Time `json:"purchased_at"`
}

// PurchaseFailure is the body of POST /orders/{id}/auto-purchase/failure
type PurchaseFailure struct {
	ErrorMessage     string    `json:"error_message"`
	ProviderAttempts []string  `json:"provider_attempts"`
	FailedAt         time.Time `json:"failed_at"`
}
