package provider

import (
	"context"
	"strings"
	"time"

	"oip/autopurchase/internal/model"
)

// Provider identifies a supported supplier.
type Provider int

const (
	Unknown Provider = iota
	Amazon
	AliExpress
	Ebay
	Wish
)

var providerNames = map[Provider]string{
	Amazon:     "amazon",
	AliExpress: "aliexpress",
	Ebay:       "ebay",
	Wish:       "wish",
}

// String returns the canonical lower-case name
func (p Provider) String() string {
	if name, ok := providerNames[p]; ok {
		return name
	}
	return "unknown"
}

// Parse maps a provider name, case-insensitively, to its Provider.
func Parse(name string) (Provider, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range providerNames {
		if n == name {
			return p, true
		}
	}
	return Unknown, false
}

// StockLevel is a provider's answer to a stock query.
type StockLevel struct {
	Available bool
	Quantity  int
}

// Gateway is the boundary to one supplier. The mocks in this package implement it;
// a real HTTP client can replace them without touching callers.
type Gateway interface {
	Provider() Provider

	// Serves reports whether the supplier ships to the ISO country code.
	Serves(country string) bool

	// Quote returns the supplier's current profile for sku.
	Quote(ctx context.Context, sku string, quantity int) (*model.SupplierProfile, error)

	CheckStock(ctx context.Context, sku string, quantity int) (*StockLevel, error)

	// PlaceOrder returns *errorutil.Error on failure so callers can classify it.
	PlaceOrder(ctx context.Context, supplier model.SupplierProfile, req *model.PurchaseRequest) (*model.ProviderOrder, error)

	CheckStatus(ctx context.Context, providerOrderID string) (*model.StatusUpdate, error)
}

// estimatedDelivery adds calendar days to now
func estimatedDelivery(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, days)
}
