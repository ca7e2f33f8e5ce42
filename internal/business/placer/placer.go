package placer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/internal/provider"
	"oip/autopurchase/pkg/errorutil"
	"oip/autopurchase/pkg/logger"
	"oip/autopurchase/pkg/timeutil"
)

// maxJitter is the largest fraction of the backoff added as jitter.
const maxJitter = 0.10

// DefaultRetryableCodes are the provider error codes worth retrying.
var DefaultRetryableCodes = []string{
	errorutil.CodeRateLimitExceeded,
	errorutil.CodeTemporaryUnavailable,
	errorutil.CodeNetworkError,
	errorutil.CodeTimeout,
	errorutil.CodeServerError,
}

// RetryConfig is the placement retry policy
type RetryConfig struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	RetryableCodes []string
}

// DefaultRetryConfig returns 3 attempts, 1s initial delay, x2 backoff capped at 30s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialDelay:   time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2,
		RetryableCodes: DefaultRetryableCodes,
	}
}

func (c RetryConfig) isRetryable(code string) bool {
	for _, rc := range c.RetryableCodes {
		if rc == code {
			return true
		}
	}
	return false
}

// Placer places orders against suppliers with classified retry.
type Placer struct {
	registry *provider.Registry
	cfg      RetryConfig
	sleep    timeutil.SleepFunc
	jitter   func() float64
	logger   logger.Logger
}

// Option customizes a Placer
type Option func(*Placer)

// WithSleep replaces the backoff sleep. Tests use it to record delays.
func WithSleep(sleep timeutil.SleepFunc) Option {
	return func(p *Placer) {
		p.sleep = sleep
	}
}

// WithJitter replaces the jitter source, which must return values in [0, 1).
func WithJitter(jitter func() float64) Option {
	return func(p *Placer) {
		p.jitter = jitter
	}
}

// NewPlacer creates a Placer
func NewPlacer(registry *provider.Registry, cfg RetryConfig, log logger.Logger, opts ...Option) *Placer {
	if cfg.RetryableCodes == nil {
		cfg.RetryableCodes = DefaultRetryableCodes
	}
	p := &Placer{
		registry: registry,
		cfg:      cfg,
		sleep:    timeutil.Sleep,
		jitter:   rand.Float64,
		logger:   log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlaceOrder buys req from supplier. A nil retry uses the placer's policy.
// Terminal codes return immediately; retryable ones are retried and end in MAX_RETRIES_EXCEEDED.
func (p *Placer) PlaceOrder(ctx context.Context, supplier model.SupplierProfile, req *model.PurchaseRequest, retry *RetryConfig) (*model.ProviderOrder, error) {
	cfg := p.cfg
	if retry != nil {
		cfg = *retry
		if cfg.RetryableCodes == nil {
			cfg.RetryableCodes = DefaultRetryableCodes
		}
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	gw, err := p.registry.Lookup(supplier.Name)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithProvider(ctx, supplier.Name)

	var lastErr *errorutil.Error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		order, err := gw.PlaceOrder(ctx, supplier, req)
		if err == nil {
			p.logger.Infof(ctx, "[Placer] order %s placed with %s as %s (attempt %d)",
				req.OrderID, supplier.Name, order.ProviderOrderID, attempt)
			return order, nil
		}

		lastErr = errorutil.Wrap(err)
		if !cfg.isRetryable(lastErr.Code) {
			p.logger.Warnf(ctx, "[Placer] order %s terminal failure from %s: %v", req.OrderID, supplier.Name, lastErr)
			return nil, lastErr
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		delay := p.backoff(cfg, attempt, lastErr)
		p.logger.Warnf(ctx, "[Placer] order %s attempt %d/%d with %s failed: %v, retrying in %v",
			req.OrderID, attempt, cfg.MaxAttempts, supplier.Name, lastErr, delay)

		if err := p.sleep(ctx, delay); err != nil {
			return nil, errorutil.NonRetriableWithCause(errorutil.CodeTimeout, "placement retry aborted", err)
		}
	}

	return nil, errorutil.NonRetriableWithCause(errorutil.CodeMaxRetriesExceeded,
		fmt.Sprintf("%s placement failed after %d attempts", supplier.Name, cfg.MaxAttempts), lastErr)
}

// backoff returns the wait before the retry that follows attempt.
// A provider retry-after hint wins over the exponential schedule.
func (p *Placer) backoff(cfg RetryConfig, attempt int, lastErr *errorutil.Error) time.Duration {
	if lastErr != nil && lastErr.RetryAfter > 0 {
		return lastErr.RetryAfter
	}

	base := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	delay := time.Duration(base + base*maxJitter*p.jitter())
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
