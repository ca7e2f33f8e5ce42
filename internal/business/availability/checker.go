package availability

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/internal/provider"
	"oip/autopurchase/pkg/errorutil"
	"oip/autopurchase/pkg/logger"
)

// DefaultCacheTTL is how long a stock check is reused.
const DefaultCacheTTL = 5 * time.Minute

// Checker queries supplier stock through the gateways and caches the answers.
type Checker struct {
	registry *provider.Registry
	store    Store
	ttl      time.Duration
	now      func() time.Time
	logger   logger.Logger
}

// NewChecker creates a Checker. ttl <= 0 falls back to DefaultCacheTTL.
func NewChecker(registry *provider.Registry, store Store, ttl time.Duration, log logger.Logger) *Checker {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Checker{
		registry: registry,
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		logger:   log,
	}
}

func cacheKey(supplier, sku string, quantity int) string {
	return fmt.Sprintf("availability:%s:%s:%d", strings.ToLower(supplier), sku, quantity)
}

// CheckAvailability never fails: errors become a cached unavailable result.
func (c *Checker) CheckAvailability(ctx context.Context, supplier, sku string, quantity int) *model.AvailabilityResult {
	key := cacheKey(supplier, sku, quantity)

	cached, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warnf(ctx, "[Availability] cache read failed for %s: %v", key, err)
	}
	if cached != nil {
		return cached
	}

	result := c.fetch(ctx, supplier, sku, quantity)

	if err := c.store.Set(ctx, key, result, c.ttl); err != nil {
		c.logger.Warnf(ctx, "[Availability] cache write failed for %s: %v", key, err)
	}
	return result
}

func (c *Checker) fetch(ctx context.Context, supplier, sku string, quantity int) *model.AvailabilityResult {
	result := &model.AvailabilityResult{
		Provider:  strings.ToLower(supplier),
		CheckedAt: c.now(),
	}

	gw, err := c.registry.Lookup(supplier)
	if err != nil {
		result.Error = errorutil.Message(err)
		return result
	}

	stock, err := gw.CheckStock(ctx, sku, quantity)
	if err != nil {
		c.logger.Warnf(ctx, "[Availability] %s stock check for %s failed: %v", supplier, sku, err)
		result.Error = errorutil.Message(err)
		return result
	}

	result.Available = stock.Available && stock.Quantity >= quantity
	qty := stock.Quantity
	result.StockQuantity = &qty
	return result
}

// CheckMultipleProviders checks every supplier concurrently. One failure never affects the others.
func (c *Checker) CheckMultipleProviders(ctx context.Context, suppliers []string, sku string, quantity int) map[string]*model.AvailabilityResult {
	results := make(map[string]*model.AvailabilityResult, len(suppliers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, supplier := range suppliers {
		supplier := supplier
		g.Go(func() error {
			res := c.CheckAvailability(gctx, supplier, sku, quantity)
			mu.Lock()
			results[supplier] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// GetFirstAvailableProvider scans suppliers in order and stops at the first available one.
func (c *Checker) GetFirstAvailableProvider(ctx context.Context, suppliers []string, sku string, quantity int) (string, bool) {
	for _, supplier := range suppliers {
		if c.CheckAvailability(ctx, supplier, sku, quantity).Available {
			return supplier, true
		}
	}
	return "", false
}

// CacheSize reports the number of cached results
func (c *Checker) CacheSize(ctx context.Context) int {
	return c.store.Size(ctx)
}
