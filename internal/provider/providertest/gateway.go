// Package providertest provides a scripted provider.Gateway for tests.
package providertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/internal/provider"
)

// StatusStep is one scripted status poll answer.
type StatusStep struct {
	Update *model.StatusUpdate
	Err    error
}

// Gateway answers from its fields and counts calls. Zero values mean success.
type Gateway struct {
	P       provider.Provider
	Profile model.SupplierProfile

	// Countries restricts Serves; nil serves everywhere.
	Countries map[string]bool

	Stock    *provider.StockLevel
	StockErr error
	QuoteErr error

	// PlaceErrs are returned by successive PlaceOrder calls; PlaceErr after they run out.
	PlaceErrs []error
	PlaceErr  error

	// StatusSteps are returned by successive CheckStatus calls; the last one repeats.
	StatusSteps []StatusStep

	mu          sync.Mutex
	stockCalls  int
	placeCalls  int
	statusCalls int
}

// New returns a Gateway for p quoting profile. Name and Available are filled in.
func New(p provider.Provider, profile model.SupplierProfile) *Gateway {
	profile.Name = p.String()
	profile.Available = true
	return &Gateway{P: p, Profile: profile}
}

// Provider implements provider.Gateway
func (g *Gateway) Provider() provider.Provider {
	return g.P
}

// Serves implements provider.Gateway
func (g *Gateway) Serves(country string) bool {
	if g.Countries == nil {
		return true
	}
	return g.Countries[strings.ToUpper(country)]
}

// Quote implements provider.Gateway
func (g *Gateway) Quote(ctx context.Context, sku string, quantity int) (*model.SupplierProfile, error) {
	if g.QuoteErr != nil {
		return nil, g.QuoteErr
	}
	profile := g.Profile
	return &profile, nil
}

// CheckStock implements provider.Gateway
func (g *Gateway) CheckStock(ctx context.Context, sku string, quantity int) (*provider.StockLevel, error) {
	g.mu.Lock()
	g.stockCalls++
	g.mu.Unlock()

	if g.StockErr != nil {
		return nil, g.StockErr
	}
	if g.Stock != nil {
		stock := *g.Stock
		return &stock, nil
	}
	return &provider.StockLevel{Available: true, Quantity: quantity + 100}, nil
}

// PlaceOrder implements provider.Gateway
func (g *Gateway) PlaceOrder(ctx context.Context, supplier model.SupplierProfile, req *model.PurchaseRequest) (*model.ProviderOrder, error) {
	g.mu.Lock()
	call := g.placeCalls
	g.placeCalls++
	g.mu.Unlock()

	if call < len(g.PlaceErrs) {
		if err := g.PlaceErrs[call]; err != nil {
			return nil, err
		}
	} else if g.PlaceErr != nil {
		return nil, g.PlaceErr
	}

	return &model.ProviderOrder{
		ProviderOrderID:    fmt.Sprintf("%s-%s-%d", strings.ToUpper(g.P.String()), req.OrderID, call+1),
		ConfirmationNumber: fmt.Sprintf("CNF-%d", call+1),
		EstimatedDelivery:  time.Now().AddDate(0, 0, supplier.DeliveryDays),
		TotalCost:          supplier.BasePrice*float64(req.Quantity) + supplier.ShippingCost,
	}, nil
}

// CheckStatus implements provider.Gateway
func (g *Gateway) CheckStatus(ctx context.Context, providerOrderID string) (*model.StatusUpdate, error) {
	g.mu.Lock()
	call := g.statusCalls
	g.statusCalls++
	g.mu.Unlock()

	if len(g.StatusSteps) == 0 {
		return &model.StatusUpdate{Status: model.ConfirmationConfirmed, ConfirmationNumber: "CNF"}, nil
	}
	if call >= len(g.StatusSteps) {
		call = len(g.StatusSteps) - 1
	}
	step := g.StatusSteps[call]
	if step.Err != nil {
		return nil, step.Err
	}
	update := *step.Update
	return &update, nil
}

// StockCalls returns how many times CheckStock ran
func (g *Gateway) StockCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stockCalls
}

// PlaceCalls returns how many times PlaceOrder ran
func (g *Gateway) PlaceCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.placeCalls
}

// StatusCalls returns how many times CheckStatus ran
func (g *Gateway) StatusCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusCalls
}

// Clock is a manual clock whose Sleep advances time instead of blocking.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewClock starts a Clock at start
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the clock time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep records d and advances the clock by it.
func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// Sleeps returns the recorded sleep durations
func (c *Clock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}
