package model

import "time"

// Address is a shipping destination. Country is an ISO 3166-1 alpha-2 code.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country" binding:"required,len=2"`
}

// SupplierProfile is a provider's quote for one SKU, recomputed per selection.
type SupplierProfile struct {
	Name             string    `json:"name"`
	HomeCountry      string    `json:"home_country"`
	BasePrice        float64   `json:"base_price"`
	ShippingCost     float64   `json:"shipping_cost"`
	DeliveryDays     int       `json:"delivery_time"`
	ReliabilityScore float64   `json:"reliability_score"`
	Available        bool      `json:"availability"`
	LastUpdated      time.Time `json:"last_updated"`
}

// SelectionCriteria is the input of one provider selection.
type SelectionCriteria struct {
	SKU                string   `json:"sku" binding:"required"`
	Quantity           int      `json:"quantity" binding:"required,min=1"`
	Destination        Address  `json:"destination" binding:"required"`
	MaxDeliveryDays    *int     `json:"max_delivery_time,omitempty"`
	MaxPrice           *float64 `json:"max_price,omitempty"`
	PreferredProviders []string `json:"preferred_providers,omitempty"`
	ExcludeProviders   []string `json:"exclude_providers,omitempty"`
}

// CostBreakdown is the landed cost of a quote. All values are rounded to 2 decimals.
type CostBreakdown struct {
	BasePrice    float64 `json:"base_price"`
	ShippingCost float64 `json:"shipping_cost"`
	Taxes        float64 `json:"taxes"`
	Fees         float64 `json:"fees"`
	Total        float64 `json:"total_cost"`
}

// SupplierSelection is the ranked outcome of a selection.
type SupplierSelection struct {
	Supplier          SupplierProfile   `json:"provider"`
	Cost              CostBreakdown     `json:"cost_breakdown"`
	TotalCost         float64           `json:"total_cost"`
	EstimatedDelivery time.Time         `json:"estimated_delivery"`
	ConfidenceScore   float64           `json:"confidence_score"`
	Fallbacks         []SupplierProfile `json:"fallback_providers"`
}

// PurchaseConstraints narrows the selection for one purchase.
type PurchaseConstraints struct {
	MaxPrice           *float64 `json:"max_price,omitempty"`
	MaxDeliveryDays    *int     `json:"max_delivery_time,omitempty"`
	PreferredProviders []string `json:"preferred_providers,omitempty"`
	ExcludeProviders   []string `json:"exclude_providers,omitempty"`
}

// Criteria builds the selection input of this request.
func (r *PurchaseRequest) Criteria() SelectionCriteria {
	c := SelectionCriteria{
		SKU:         r.SKU,
		Quantity:    r.Quantity,
		Destination: r.Destination,
	}
	if r.Constraints != nil {
		c.MaxDeliveryDays = r.Constraints.MaxDeliveryDays
		c.MaxPrice = r.Constraints.MaxPrice
		c.PreferredProviders = r.Constraints.PreferredProviders
		c.ExcludeProviders = r.Constraints.ExcludeProviders
	}
	return c
}

// PurchaseRequest is one line item to buy.
type PurchaseRequest struct {
	OrderID     string               `json:"order_id" binding:"required"`
	SKU         string               `json:"sku" binding:"required"`
	Quantity    int                  `json:"quantity" binding:"required,min=1"`
	Destination Address              `json:"shipping_address" binding:"required"`
	Constraints *PurchaseConstraints `json:"constraints,omitempty"`
}

// ProviderOrder is the handle of a placed provider order.
type ProviderOrder struct {
	ProviderOrderID    string    `json:"provider_order_id"`
	ConfirmationNumber string    `json:"confirmation_number,omitempty"`
	TrackingNumber     string    `json:"tracking_number,omitempty"`
	EstimatedDelivery  time.Time `json:"estimated_delivery"`
	TotalCost          float64   `json:"total_cost"`
}

// PurchaseResult is the outcome of one line item.
type PurchaseResult struct {
	Success            bool                `json:"success"`
	SKU                string              `json:"sku"`
	ProviderUsed       string              `json:"provider_used"`
	ProviderOrderID    string              `json:"provider_order_id,omitempty"`
	Confirmation       *ConfirmationStatus `json:"confirmation,omitempty"`
	TotalCost          float64             `json:"total_cost"`
	EstimatedDelivery  time.Time           `json:"estimated_delivery"`
	FallbackAttempts   int                 `json:"fallback_attempts"`
	AttemptedProviders []string            `json:"attempted_providers"`
	ErrorCode          string              `json:"error_code,omitempty"`
	Error              string              `json:"error,omitempty"`
}

// SettledState returns the settled confirmation state, or "" when confirmation never ran.
func (r *PurchaseResult) SettledState() ConfirmationState {
	if r == nil || r.Confirmation == nil {
		return ""
	}
	return r.Confirmation.Status
}

// AvailabilityResult is a cached stock check.
type AvailabilityResult struct {
	Provider      string    `json:"provider"`
	Available     bool      `json:"available"`
	StockQuantity *int      `json:"stock_quantity,omitempty"`
	CheckedAt     time.Time `json:"checked_at"`
	Error         string    `json:"error,omitempty"`
}
