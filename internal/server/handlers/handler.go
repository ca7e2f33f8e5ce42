package handlers

import (
	"context"
	"time"

	"oip/autopurchase/internal/business/orchestrator"
	"oip/autopurchase/internal/business/selector"
	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/logger"
	"oip/autopurchase/pkg/orderservice"
)

// ProviderSelector ranks and picks suppliers
type ProviderSelector interface {
	SelectBest(ctx context.Context, criteria model.SelectionCriteria) (*model.SupplierSelection, error)
	Rank(ctx context.Context, criteria model.SelectionCriteria) []selector.Candidate
}

// Purchaser buys a single line item
type Purchaser interface {
	ExecutePurchase(ctx context.Context, req *model.PurchaseRequest) *model.PurchaseResult
}

// Orchestrator runs pending cycles and exposes counters
type Orchestrator interface {
	ProcessPending(ctx context.Context) (*orchestrator.CycleSummary, error)
	Stats(ctx context.Context) orchestrator.Stats
}

// AvailabilityCache reports the number of cached stock checks
type AvailabilityCache interface {
	CacheSize(ctx context.Context) int
}

// OrderServiceHealth checks the external order service
type OrderServiceHealth interface {
	HealthCheck(ctx context.Context) *orderservice.Response
}

// SchedulerState reports whether the processing loop runs
type SchedulerState interface {
	Running() bool
}

// Handler serves the manual-trigger endpoints.
type Handler struct {
	selector     ProviderSelector
	purchaser    Purchaser
	orchestrator Orchestrator
	cache        AvailabilityCache
	orders       OrderServiceHealth
	scheduler    SchedulerState
	startedAt    time.Time
	logger       logger.Logger
}

// Option configures optional Handler dependencies
type Option func(*Handler)

// WithScheduler reports the scheduler state on /health
func WithScheduler(s SchedulerState) Option {
	return func(h *Handler) {
		h.scheduler = s
	}
}

// NewHandler creates a Handler
func NewHandler(
	sel ProviderSelector,
	purchaser Purchaser,
	orch Orchestrator,
	cache AvailabilityCache,
	orders OrderServiceHealth,
	log logger.Logger,
	opts ...Option,
) *Handler {
	h := &Handler{
		selector:     sel,
		purchaser:    purchaser,
		orchestrator: orch,
		cache:        cache,
		orders:       orders,
		startedAt:    time.Now(),
		logger:       log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
