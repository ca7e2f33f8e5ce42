package model

import "time"

// Order status values understood by the order service
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusCancelled  = "cancelled"
)

// OrderItem is one line of an order
type OrderItem struct {
	ProductID string  `json:"product_id,omitempty"`
	SKU       string  `json:"sku" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
	UnitPrice float64 `json:"unit_price,omitempty"`
}

// Order is the order as returned by the order service
type Order struct {
	ID              string               `json:"id" binding:"required"`
	OrderNumber     string               `json:"order_number,omitempty"`
	Items           []OrderItem          `json:"items" binding:"required,min=1,dive"`
	ShippingAddress Address              `json:"shipping_address" binding:"required"`
	Constraints     *PurchaseConstraints `json:"constraints,omitempty"`
	Status          string               `json:"status,omitempty"`
}

// OrchestrationResult is the per-order aggregate of item purchases.
type OrchestrationResult struct {
	OrderID            string            `json:"order_id"`
	Success            bool              `json:"success"`
	ProviderUsed       string            `json:"provider_used,omitempty"`
	ProviderOrderID    string            `json:"provider_order_id,omitempty"`
	ConfirmationStatus ConfirmationState `json:"confirmation_status,omitempty"`
	TotalCost          float64           `json:"total_cost"`
	EstimatedDelivery  *time.Time        `json:"estimated_delivery,omitempty"`
	Error              string            `json:"error,omitempty"`
	FallbackAttempts   int               `json:"fallback_attempts"`
	AttemptedProviders []string          `json:"attempted_providers,omitempty"`
	ItemResults        []*PurchaseResult `json:"item_results,omitempty"`
	ProcessingTimeMs   int64             `json:"processing_time_ms"`
	Duplicate          bool              `json:"duplicate,omitempty"`
}
