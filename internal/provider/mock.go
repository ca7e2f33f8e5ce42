package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/errorutil"
	"oip/autopurchase/pkg/timeutil"
)

// placeOutcome is one weighted branch of a mock placement
type placeOutcome struct {
	weight     float64
	code       string // "" = success
	message    string
	retryAfter time.Duration
}

// statusOutcome is one weighted branch of a mock status poll
type statusOutcome struct {
	weight     float64
	state      model.ConfirmationState
	code       string // non-empty = transient check error
	retryAfter time.Duration
}

// delayRange is a uniform [min, max) latency
type delayRange struct {
	min time.Duration
	max time.Duration
}

// mockProfile is the behavior table of one supplier
type mockProfile struct {
	provider      Provider
	homeCountry   string
	countries     map[string]bool // nil ships worldwide
	priceFactor   float64
	shipping      float64
	deliveryDays  int
	reliability   float64
	inStockRate   float64
	stockErrRate  float64
	stockDelay    delayRange
	placeDelay    delayRange
	placeOutcomes []placeOutcome
	statusDelay   delayRange
	statusOutcome []statusOutcome
	idPrefix      string
}

// MockOption customizes a mock gateway
type MockOption func(*MockGateway)

// WithSeed makes the mock deterministic.
func WithSeed(seed int64) MockOption {
	return func(g *MockGateway) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithSleep replaces the latency simulation.
func WithSleep(sleep timeutil.SleepFunc) MockOption {
	return func(g *MockGateway) {
		g.sleep = sleep
	}
}

// WithoutLatency disables simulated latency.
func WithoutLatency() MockOption {
	return WithSleep(func(ctx context.Context, _ time.Duration) error {
		return ctx.Err()
	})
}

// MockGateway simulates a supplier API with the probability tables of its profile.
type MockGateway struct {
	profile mockProfile
	mu      sync.Mutex
	rng     *rand.Rand
	sleep   timeutil.SleepFunc
	now     timeutil.NowFunc
}

func newMockGateway(profile mockProfile, opts ...MockOption) *MockGateway {
	g := &MockGateway{
		profile: profile,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:   timeutil.Sleep,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Provider implements Gateway
func (g *MockGateway) Provider() Provider {
	return g.profile.provider
}

// Serves implements Gateway
func (g *MockGateway) Serves(country string) bool {
	if g.profile.countries == nil {
		return true
	}
	return g.profile.countries[strings.ToUpper(country)]
}

// Quote derives a deterministic unit price from the SKU, scaled by the supplier's price factor.
func (g *MockGateway) Quote(ctx context.Context, sku string, quantity int) (*model.SupplierProfile, error) {
	if sku == "" {
		return nil, errorutil.NonRetriable(errorutil.CodeInvalidRequest, "sku is required")
	}

	reference := referencePrice(sku)
	return &model.SupplierProfile{
		Name:             g.profile.provider.String(),
		HomeCountry:      g.profile.homeCountry,
		BasePrice:        math.Round(reference*g.profile.priceFactor*100) / 100,
		ShippingCost:     g.profile.shipping,
		DeliveryDays:     g.profile.deliveryDays,
		ReliabilityScore: g.profile.reliability,
		Available:        true,
		LastUpdated:      g.now(),
	}, nil
}

// CheckStock implements Gateway
func (g *MockGateway) CheckStock(ctx context.Context, sku string, quantity int) (*StockLevel, error) {
	if err := g.sleep(ctx, g.delay(g.profile.stockDelay)); err != nil {
		return nil, errorutil.Retriable(errorutil.CodeTimeout, err.Error())
	}

	roll := g.float()
	if roll < g.profile.stockErrRate {
		return nil, errorutil.Retriable(errorutil.CodeNetworkError,
			fmt.Sprintf("%s stock service unreachable", g.profile.provider))
	}

	if g.float() >= g.profile.inStockRate {
		return &StockLevel{Available: false, Quantity: 0}, nil
	}

	stock := quantity + g.intn(500)
	return &StockLevel{Available: true, Quantity: stock}, nil
}

// PlaceOrder implements Gateway
func (g *MockGateway) PlaceOrder(ctx context.Context, supplier model.SupplierProfile, req *model.PurchaseRequest) (*model.ProviderOrder, error) {
	if err := g.sleep(ctx, g.delay(g.profile.placeDelay)); err != nil {
		return nil, errorutil.Retriable(errorutil.CodeTimeout, err.Error())
	}

	outcome := g.pickPlace()
	if outcome.code != "" {
		e := &errorutil.Error{
			Code:       outcome.code,
			Message:    outcome.message,
			Retryable:  isTransientCode(outcome.code),
			RetryAfter: outcome.retryAfter,
		}
		return nil, e
	}

	now := g.now()
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	return &model.ProviderOrder{
		ProviderOrderID:    g.profile.idPrefix + strings.ToUpper(uuid.New().String()[:12]),
		ConfirmationNumber: "CNF-" + strings.ToUpper(uuid.New().String()[:8]),
		EstimatedDelivery:  estimatedDelivery(now, supplier.DeliveryDays),
		TotalCost:          math.Round((supplier.BasePrice*float64(quantity)+supplier.ShippingCost)*100) / 100,
	}, nil
}

// CheckStatus implements Gateway. Ids not issued by this supplier are a terminal error.
func (g *MockGateway) CheckStatus(ctx context.Context, providerOrderID string) (*model.StatusUpdate, error) {
	if !strings.HasPrefix(providerOrderID, g.profile.idPrefix) {
		return nil, errorutil.NonRetriable(errorutil.CodeOrderNotFound,
			fmt.Sprintf("%s has no order %s", g.profile.provider, providerOrderID))
	}

	if err := g.sleep(ctx, g.delay(g.profile.statusDelay)); err != nil {
		return nil, errorutil.Retriable(errorutil.CodeTimeout, err.Error())
	}

	outcome := g.pickStatus()
	if outcome.code != "" {
		return nil, errorutil.RetriableAfter(outcome.code,
			fmt.Sprintf("%s status check failed", g.profile.provider), outcome.retryAfter)
	}

	update := &model.StatusUpdate{
		Status:     outcome.state,
		RetryAfter: outcome.retryAfter,
	}
	if outcome.state != model.ConfirmationPending {
		update.ConfirmationNumber = "CNF-" + strings.TrimPrefix(providerOrderID, g.profile.idPrefix)
	}
	if outcome.state == model.ConfirmationShipped {
		update.TrackingNumber = "TRK" + strings.ToUpper(uuid.New().String()[:10])
	}
	return update, nil
}

func (g *MockGateway) pickPlace() placeOutcome {
	roll := g.float()
	acc := 0.0
	for _, o := range g.profile.placeOutcomes {
		acc += o.weight
		if roll < acc {
			return o
		}
	}
	return g.profile.placeOutcomes[len(g.profile.placeOutcomes)-1]
}

func (g *MockGateway) pickStatus() statusOutcome {
	roll := g.float()
	acc := 0.0
	for _, o := range g.profile.statusOutcome {
		acc += o.weight
		if roll < acc {
			return o
		}
	}
	return g.profile.statusOutcome[len(g.profile.statusOutcome)-1]
}

func (g *MockGateway) delay(r delayRange) time.Duration {
	span := r.max - r.min
	if span <= 0 {
		return r.min
	}
	return r.min + time.Duration(g.int63n(int64(span)))
}

func (g *MockGateway) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

func (g *MockGateway) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

func (g *MockGateway) int63n(n int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Int63n(n)
}

// referencePrice maps a SKU to a stable price in [10, 210)
func referencePrice(sku string) float64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(sku)))
	cents := h.Sum64() % 20000
	return 10 + float64(cents)/100
}

func isTransientCode(code string) bool {
	switch code {
	case errorutil.CodeRateLimitExceeded, errorutil.CodeTemporaryUnavailable,
		errorutil.CodeNetworkError, errorutil.CodeTimeout, errorutil.CodeServerError:
		return true
	}
	return false
}
