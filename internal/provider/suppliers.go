package provider

import (
	"time"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/errorutil"
)

func countrySet(codes ...string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}

var euCountries = []string{"ES", "PT", "FR", "DE", "IT", "NL", "BE", "IE", "AT", "PL"}

func withEU(extra ...string) map[string]bool {
	return countrySet(append(append([]string{}, euCountries...), extra...)...)
}

// amazonProfile: domestic Spanish fulfilment, fast and reliable.
var amazonProfile = mockProfile{
	provider:     Amazon,
	homeCountry:  "ES",
	countries:    withEU("GB", "US", "CA", "MX", "JP"),
	priceFactor:  1.00,
	shipping:     4.99,
	deliveryDays: 3,
	reliability:  95,
	inStockRate:  0.95,
	stockErrRate: 0.02,
	stockDelay:   delayRange{50 * time.Millisecond, 200 * time.Millisecond},
	placeDelay:   delayRange{200 * time.Millisecond, 800 * time.Millisecond},
	placeOutcomes: []placeOutcome{
		{weight: 0.90},
		{weight: 0.04, code: errorutil.CodeRateLimitExceeded, message: "amazon rate limit exceeded", retryAfter: 2 * time.Second},
		{weight: 0.03, code: errorutil.CodeTemporaryUnavailable, message: "amazon service temporarily unavailable"},
		{weight: 0.02, code: errorutil.CodeInsufficientInventory, message: "amazon insufficient inventory"},
		{weight: 0.01, code: errorutil.CodePaymentDeclined, message: "amazon payment declined"},
	},
	statusDelay: delayRange{100 * time.Millisecond, 300 * time.Millisecond},
	statusOutcome: []statusOutcome{
		{weight: 0.02, code: errorutil.CodeNetworkError},
		{weight: 0.18, state: model.ConfirmationPending, retryAfter: 10 * time.Second},
		{weight: 0.55, state: model.ConfirmationConfirmed},
		{weight: 0.15, state: model.ConfirmationProcessing},
		{weight: 0.07, state: model.ConfirmationShipped},
		{weight: 0.03, state: model.ConfirmationCancelled},
	},
	idPrefix: "AMZ-",
}

// aliexpressProfile: cheap, ships from China, slow confirmations.
var aliexpressProfile = mockProfile{
	provider:     AliExpress,
	homeCountry:  "CN",
	countries:    nil,
	priceFactor:  0.65,
	shipping:     2.99,
	deliveryDays: 18,
	reliability:  78,
	inStockRate:  0.90,
	stockErrRate: 0.02,
	stockDelay:   delayRange{200 * time.Millisecond, 600 * time.Millisecond},
	placeDelay:   delayRange{500 * time.Millisecond, 2000 * time.Millisecond},
	placeOutcomes: []placeOutcome{
		{weight: 0.80},
		{weight: 0.07, code: errorutil.CodeTimeout, message: "aliexpress request timed out"},
		{weight: 0.05, code: errorutil.CodeNetworkError, message: "aliexpress network error"},
		{weight: 0.05, code: errorutil.CodeInsufficientInventory, message: "aliexpress insufficient inventory"},
		{weight: 0.03, code: errorutil.CodeInvalidAddress, message: "aliexpress rejected shipping address"},
	},
	statusDelay: delayRange{300 * time.Millisecond, 1000 * time.Millisecond},
	statusOutcome: []statusOutcome{
		{weight: 0.05, code: errorutil.CodeTimeout},
		{weight: 0.35, state: model.ConfirmationPending, retryAfter: 30 * time.Second},
		{weight: 0.35, state: model.ConfirmationConfirmed},
		{weight: 0.15, state: model.ConfirmationProcessing},
		{weight: 0.05, state: model.ConfirmationCancelled},
		{weight: 0.05, state: model.ConfirmationFailed},
	},
	idPrefix: "AE-",
}

// ebayProfile: German marketplace sellers, mid price.
var ebayProfile = mockProfile{
	provider:     Ebay,
	homeCountry:  "DE",
	countries:    withEU("GB", "US", "CA", "AU"),
	priceFactor:  0.90,
	shipping:     5.99,
	deliveryDays: 6,
	reliability:  85,
	inStockRate:  0.85,
	stockErrRate: 0.02,
	stockDelay:   delayRange{100 * time.Millisecond, 400 * time.Millisecond},
	placeDelay:   delayRange{300 * time.Millisecond, 1200 * time.Millisecond},
	placeOutcomes: []placeOutcome{
		{weight: 0.85},
		{weight: 0.05, code: errorutil.CodeServerError, message: "ebay internal server error"},
		{weight: 0.04, code: errorutil.CodeRateLimitExceeded, message: "ebay rate limit exceeded", retryAfter: 5 * time.Second},
		{weight: 0.04, code: errorutil.CodeInsufficientInventory, message: "ebay seller out of stock"},
		{weight: 0.02, code: errorutil.CodePaymentDeclined, message: "ebay payment declined"},
	},
	statusDelay: delayRange{200 * time.Millisecond, 600 * time.Millisecond},
	statusOutcome: []statusOutcome{
		{weight: 0.03, code: errorutil.CodeServerError},
		{weight: 0.27, state: model.ConfirmationPending, retryAfter: 15 * time.Second},
		{weight: 0.45, state: model.ConfirmationConfirmed},
		{weight: 0.15, state: model.ConfirmationProcessing},
		{weight: 0.05, state: model.ConfirmationShipped},
		{weight: 0.05, state: model.ConfirmationCancelled},
	},
	idPrefix: "EBY-",
}

// wishProfile: cheapest and least reliable, usually filtered by the reliability floor.
var wishProfile = mockProfile{
	provider:     Wish,
	homeCountry:  "CN",
	countries:    nil,
	priceFactor:  0.55,
	shipping:     1.99,
	deliveryDays: 25,
	reliability:  55,
	inStockRate:  0.80,
	stockErrRate: 0.02,
	stockDelay:   delayRange{300 * time.Millisecond, 900 * time.Millisecond},
	placeDelay:   delayRange{800 * time.Millisecond, 2500 * time.Millisecond},
	placeOutcomes: []placeOutcome{
		{weight: 0.70},
		{weight: 0.10, code: errorutil.CodeTemporaryUnavailable, message: "wish service temporarily unavailable"},
		{weight: 0.08, code: errorutil.CodeTimeout, message: "wish request timed out"},
		{weight: 0.07, code: errorutil.CodeInsufficientInventory, message: "wish insufficient inventory"},
		{weight: 0.05, code: errorutil.CodeInvalidAddress, message: "wish rejected shipping address"},
	},
	statusDelay: delayRange{500 * time.Millisecond, 1500 * time.Millisecond},
	statusOutcome: []statusOutcome{
		{weight: 0.05, code: errorutil.CodeTemporaryUnavailable},
		{weight: 0.45, state: model.ConfirmationPending, retryAfter: 30 * time.Second},
		{weight: 0.25, state: model.ConfirmationConfirmed},
		{weight: 0.10, state: model.ConfirmationProcessing},
		{weight: 0.08, state: model.ConfirmationCancelled},
		{weight: 0.07, state: model.ConfirmationFailed},
	},
	idPrefix: "WSH-",
}

// NewAmazonGateway returns the Amazon mock
func NewAmazonGateway(opts ...MockOption) *MockGateway {
	return newMockGateway(amazonProfile, opts...)
}

// NewAliExpressGateway returns the AliExpress mock
func NewAliExpressGateway(opts ...MockOption) *MockGateway {
	return newMockGateway(aliexpressProfile, opts...)
}

// NewEbayGateway returns the eBay mock
func NewEbayGateway(opts ...MockOption) *MockGateway {
	return newMockGateway(ebayProfile, opts...)
}

// NewWishGateway returns the Wish mock
func NewWishGateway(opts ...MockOption) *MockGateway {
	return newMockGateway(wishProfile, opts...)
}
