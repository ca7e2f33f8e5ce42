package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/errorutil"
	"oip/autopurchase/pkg/logger"
	"oip/autopurchase/pkg/orderservice"
	"oip/autopurchase/pkg/timeutil"
)

// Purchaser buys one line item
type Purchaser interface {
	ExecutePurchase(ctx context.Context, req *model.PurchaseRequest) *model.PurchaseResult
}

// OrderService is the part of the order service client the orchestrator reports to.
type OrderService interface {
	MarkProcessing(ctx context.Context, orderID string) *orderservice.Response
	UpdateOrderStatus(ctx context.Context, orderID, status string) *orderservice.Response
	UpdateProviderInfo(ctx context.Context, orderID string, info orderservice.ProviderInfo) *orderservice.Response
	ReportPurchaseSuccess(ctx context.Context, orderID string, report orderservice.PurchaseSuccess) *orderservice.Response
	ReportPurchaseFailure(ctx context.Context, orderID string, report orderservice.PurchaseFailure) *orderservice.Response
	GetPendingOrders(ctx context.Context) ([]model.Order, *orderservice.Response)
	HealthCheck(ctx context.Context) *orderservice.Response
}

// Config holds the batch limits
type Config struct {
	MaxConcurrentPurchases int
	BatchPause             time.Duration
}

// DefaultConfig returns 5 orders per chunk and a 1s pause between chunks.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentPurchases: 5,
		BatchPause:             time.Second,
	}
}

// Orchestrator turns orders into item purchases and reports the outcome upstream.
type Orchestrator struct {
	purchaser Purchaser
	orders    OrderService
	inflight  InFlightStore
	notifier  Notifier
	recorder  Recorder
	cfg       Config
	sleep     timeutil.SleepFunc
	now       timeutil.NowFunc
	logger    logger.Logger

	processed  atomic.Int64
	succeeded  atomic.Int64
	failed     atomic.Int64
	duplicates atomic.Int64
	cycles     atomic.Int64
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithNotifier sets where finished orchestrations are published
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithRecorder sets where finished orchestrations are persisted
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithSleep replaces the pause between batch chunks
func WithSleep(sleep timeutil.SleepFunc) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// NewOrchestrator creates an Orchestrator. A nil inflight store gets an in-memory one.
func NewOrchestrator(purchaser Purchaser, orders OrderService, inflight InFlightStore, cfg Config, log logger.Logger, opts ...Option) *Orchestrator {
	if cfg.MaxConcurrentPurchases <= 0 {
		cfg.MaxConcurrentPurchases = DefaultConfig().MaxConcurrentPurchases
	}
	if cfg.BatchPause < 0 {
		cfg.BatchPause = 0
	}
	if inflight == nil {
		inflight = NewMemoryInFlight()
	}

	o := &Orchestrator{
		purchaser: purchaser,
		orders:    orders,
		inflight:  inflight,
		cfg:       cfg,
		sleep:     timeutil.Sleep,
		now:       time.Now,
		logger:    log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OrchestratePurchase buys every item of order sequentially. A second concurrent call for the
// same order id returns a duplicate result without touching anything.
func (o *Orchestrator) OrchestratePurchase(ctx context.Context, order *model.Order) (result *model.OrchestrationResult) {
	start := o.now()
	ctx = logger.WithOrderID(ctx, order.ID)

	acquired, err := o.inflight.Acquire(ctx, order.ID)
	if err != nil {
		o.logger.Errorf(ctx, "[Orchestrator] in-flight guard unavailable for order %s: %v", order.ID, err)
		o.failed.Inc()
		return &model.OrchestrationResult{
			OrderID: order.ID,
			Error:   fmt.Sprintf("in-flight guard unavailable: %v", err),
		}
	}
	if !acquired {
		o.duplicates.Inc()
		o.logger.Warnf(ctx, "[Orchestrator] order %s is already being processed", order.ID)
		return &model.OrchestrationResult{
			OrderID:   order.ID,
			Duplicate: true,
			Error:     fmt.Sprintf("order %s is already being processed", order.ID),
		}
	}

	defer func() {
		if err := o.inflight.Release(context.WithoutCancel(ctx), order.ID); err != nil {
			o.logger.Errorf(ctx, "[Orchestrator] release of order %s failed: %v", order.ID, err)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Errorf(ctx, "[Orchestrator] panic while processing order %s: %v\n%s", order.ID, r, debug.Stack())
			result = &model.OrchestrationResult{
				OrderID:          order.ID,
				Error:            fmt.Sprintf("unexpected error: %v", r),
				ProcessingTimeMs: o.now().Sub(start).Milliseconds(),
			}
		}
		o.processed.Inc()
		if result.Success {
			o.succeeded.Inc()
		} else {
			o.failed.Inc()
		}
	}()

	if resp := o.orders.MarkProcessing(ctx, order.ID); !resp.Success {
		o.logger.Warnf(ctx, "[Orchestrator] mark processing for order %s failed: %s", order.ID, resp.Error)
	}

	result = o.purchaseItems(ctx, order)
	result.ProcessingTimeMs = o.now().Sub(start).Milliseconds()

	// the supplier already has the outcome, so it is reported even after ctx expires
	reportCtx := context.WithoutCancel(ctx)
	if result.Success {
		o.reportSuccess(reportCtx, order, result)
	} else {
		o.reportFailure(reportCtx, order, result)
	}
	o.publish(reportCtx, order, result)

	o.logger.Infof(ctx, "[Orchestrator] order %s done: success=%v provider=%s items=%d took=%dms",
		order.ID, result.Success, result.ProviderUsed, len(result.ItemResults), result.ProcessingTimeMs)
	return result
}

// purchaseItems runs the item purchases one after another and folds them into a result.
func (o *Orchestrator) purchaseItems(ctx context.Context, order *model.Order) *model.OrchestrationResult {
	result := &model.OrchestrationResult{
		OrderID:     order.ID,
		ItemResults: make([]*model.PurchaseResult, 0, len(order.Items)),
	}
	if len(order.Items) == 0 {
		result.Error = "order has no items"
		return result
	}

	refresher, _ := o.inflight.(Refresher)
	for _, item := range order.Items {
		if refresher != nil {
			if err := refresher.Refresh(ctx, order.ID); err != nil {
				o.logger.Warnf(ctx, "[Orchestrator] refresh in-flight entry for order %s failed: %v", order.ID, err)
			}
		}
		req := &model.PurchaseRequest{
			OrderID:     order.ID,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			Destination: order.ShippingAddress,
			Constraints: order.Constraints,
		}
		result.ItemResults = append(result.ItemResults, o.purchaser.ExecutePurchase(ctx, req))
	}

	var first *model.PurchaseResult
	for _, r := range result.ItemResults {
		if r.Success {
			first = r
			break
		}
	}

	if first != nil {
		eta := first.EstimatedDelivery
		result.Success = true
		result.ProviderUsed = first.ProviderUsed
		result.ProviderOrderID = first.ProviderOrderID
		result.ConfirmationStatus = first.SettledState()
		result.TotalCost = first.TotalCost
		result.EstimatedDelivery = &eta
		result.FallbackAttempts = first.FallbackAttempts
		result.AttemptedProviders = first.AttemptedProviders
		return result
	}

	seen := make(map[string]bool)
	errs := make([]string, 0, len(result.ItemResults))
	for _, r := range result.ItemResults {
		result.FallbackAttempts += r.FallbackAttempts
		for _, p := range r.AttemptedProviders {
			if !seen[p] {
				seen[p] = true
				result.AttemptedProviders = append(result.AttemptedProviders, p)
			}
		}
		if r.Error != "" {
			errs = append(errs, fmt.Sprintf("%s: %s", r.SKU, r.Error))
		}
	}
	result.Error = "all item purchases failed"
	if len(errs) > 0 {
		result.Error += ": " + strings.Join(errs, "; ")
	}
	return result
}

func (o *Orchestrator) reportSuccess(ctx context.Context, order *model.Order, result *model.OrchestrationResult) {
	eta := o.now()
	if result.EstimatedDelivery != nil {
		eta = *result.EstimatedDelivery
	}

	if resp := o.orders.ReportPurchaseSuccess(ctx, order.ID, orderservice.PurchaseSuccess{
		ProviderOrderID:   result.ProviderOrderID,
		ProviderName:      result.ProviderUsed,
		TotalCost:         result.TotalCost,
		EstimatedDelivery: eta,
		PurchasedAt:       o.now(),
	}); !resp.Success {
		o.logger.Warnf(ctx, "[Orchestrator] report success for order %s failed: %s", order.ID, resp.Error)
	}

	cost := result.TotalCost
	info := orderservice.ProviderInfo{
		ProviderOrderID:   result.ProviderOrderID,
		ProviderName:      result.ProviderUsed,
		EstimatedDelivery: result.EstimatedDelivery,
		ActualCost:        &cost,
	}
	if first := firstSuccess(result.ItemResults); first != nil && first.Confirmation != nil {
		info.TrackingNumber = first.Confirmation.TrackingNumber
	}
	if resp := o.orders.UpdateProviderInfo(ctx, order.ID, info); !resp.Success {
		o.logger.Warnf(ctx, "[Orchestrator] provider info for order %s failed: %s", order.ID, resp.Error)
	}

	status := model.OrderStatusProcessing
	if result.ConfirmationStatus == model.ConfirmationShipped {
		status = model.OrderStatusShipped
	}
	if resp := o.orders.UpdateOrderStatus(ctx, order.ID, status); !resp.Success {
		o.logger.Warnf(ctx, "[Orchestrator] status %s for order %s failed: %s", status, order.ID, resp.Error)
	}
}

func (o *Orchestrator) reportFailure(ctx context.Context, order *model.Order, result *model.OrchestrationResult) {
	attempts := result.AttemptedProviders
	if attempts == nil {
		attempts = []string{}
	}
	if resp := o.orders.ReportPurchaseFailure(ctx, order.ID, orderservice.PurchaseFailure{
		ErrorMessage:     result.Error,
		ProviderAttempts: attempts,
		FailedAt:         o.now(),
	}); !resp.Success {
		o.logger.Warnf(ctx, "[Orchestrator] report failure for order %s failed: %s", order.ID, resp.Error)
	}

	if resp := o.orders.UpdateOrderStatus(ctx, order.ID, model.OrderStatusCancelled); !resp.Success {
		o.logger.Warnf(ctx, "[Orchestrator] cancel order %s failed: %s", order.ID, resp.Error)
	}
}

// publish hands the result to the notifier and recorder. Neither can fail the order.
func (o *Orchestrator) publish(ctx context.Context, order *model.Order, result *model.OrchestrationResult) {
	if o.notifier != nil {
		if err := o.notifier.Notify(ctx, order, result); err != nil {
			o.logger.Warnf(ctx, "[Orchestrator] notify for order %s failed: %v", order.ID, err)
		}
	}
	if o.recorder != nil {
		if err := o.recorder.Record(ctx, order, result); err != nil {
			o.logger.Warnf(ctx, "[Orchestrator] audit record for order %s failed: %v", order.ID, err)
		}
	}
}

func firstSuccess(items []*model.PurchaseResult) *model.PurchaseResult {
	for _, r := range items {
		if r.Success {
			return r
		}
	}
	return nil
}

// ProcessOrdersBatch runs orders in chunks of MaxConcurrentPurchases, pausing between chunks.
// The result slice is index aligned with orders.
func (o *Orchestrator) ProcessOrdersBatch(ctx context.Context, orders []model.Order) []*model.OrchestrationResult {
	results := make([]*model.OrchestrationResult, len(orders))
	size := o.cfg.MaxConcurrentPurchases

	for start := 0; start < len(orders); start += size {
		end := start + size
		if end > len(orders) {
			end = len(orders)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				results[i] = o.safeOrchestrate(ctx, &orders[i])
				return nil
			})
		}
		_ = g.Wait()

		o.logger.Debugf(ctx, "[Orchestrator] batch chunk %d-%d of %d finished", start+1, end, len(orders))

		if end < len(orders) {
			if err := o.sleep(ctx, o.cfg.BatchPause); err != nil {
				for i := end; i < len(orders); i++ {
					results[i] = &model.OrchestrationResult{
						OrderID: orders[i].ID,
						Error:   fmt.Sprintf("batch aborted: %v", err),
					}
				}
				break
			}
		}
	}

	return results
}

// safeOrchestrate converts a panic escaping OrchestratePurchase into a failed result.
func (o *Orchestrator) safeOrchestrate(ctx context.Context, order *model.Order) (result *model.OrchestrationResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Errorf(ctx, "[Orchestrator] order %s crashed: %v", order.ID, r)
			result = &model.OrchestrationResult{
				OrderID: order.ID,
				Error:   fmt.Sprintf("unexpected error: %v", r),
			}
		}
	}()
	return o.OrchestratePurchase(ctx, order)
}

// CycleSummary describes one pass of ProcessPending
type CycleSummary struct {
	Fetched    int           `json:"fetched"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Duplicates int           `json:"duplicates"`
	Duration   time.Duration `json:"duration"`
}

// ProcessPending runs one cycle: health check, fetch pending orders, batch them.
func (o *Orchestrator) ProcessPending(ctx context.Context) (*CycleSummary, error) {
	start := o.now()
	o.cycles.Inc()

	if resp := o.orders.HealthCheck(ctx); !resp.Success {
		return nil, errorutil.Retriable(errorutil.CodeTemporaryUnavailable,
			fmt.Sprintf("order service unhealthy: %s", resp.Error))
	}

	orders, resp := o.orders.GetPendingOrders(ctx)
	if !resp.Success {
		return nil, errorutil.Retriable(errorutil.CodeTemporaryUnavailable,
			fmt.Sprintf("fetch pending orders failed: %s", resp.Error))
	}

	summary := &CycleSummary{Fetched: len(orders)}
	if len(orders) > 0 {
		for _, r := range o.ProcessOrdersBatch(ctx, orders) {
			switch {
			case r.Duplicate:
				summary.Duplicates++
			case r.Success:
				summary.Succeeded++
			default:
				summary.Failed++
			}
		}
	}
	summary.Duration = o.now().Sub(start)

	o.logger.Infof(ctx, "[Orchestrator] cycle done: fetched=%d succeeded=%d failed=%d duplicates=%d took=%v",
		summary.Fetched, summary.Succeeded, summary.Failed, summary.Duplicates, summary.Duration)
	return summary, nil
}

// Stats is a snapshot of the orchestrator counters
type Stats struct {
	Processed      int64    `json:"processed"`
	Succeeded      int64    `json:"succeeded"`
	Failed         int64    `json:"failed"`
	Duplicates     int64    `json:"duplicates"`
	Cycles         int64    `json:"cycles"`
	ActiveOrderIDs []string `json:"active_order_ids"`
}

// Stats returns the current counters and in-flight order ids.
func (o *Orchestrator) Stats(ctx context.Context) Stats {
	active, err := o.inflight.Active(ctx)
	if err != nil {
		o.logger.Warnf(ctx, "[Orchestrator] list active orders failed: %v", err)
	}
	if active == nil {
		active = []string{}
	}
	return Stats{
		Processed:      o.processed.Load(),
		Succeeded:      o.succeeded.Load(),
		Failed:         o.failed.Load(),
		Duplicates:     o.duplicates.Load(),
		Cycles:         o.cycles.Load(),
		ActiveOrderIDs: active,
	}
}
