package purchase

import (
	"context"
	"fmt"
	"time"

	"oip/autopurchase/internal/business/cost"
	"oip/autopurchase/internal/business/placer"
	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/errorutil"
	"oip/autopurchase/pkg/logger"
	"oip/autopurchase/pkg/timeutil"
)

// ProviderNone is reported as provider_used when every supplier failed.
const ProviderNone = "none"

// Selector picks the primary supplier and its fallbacks
type Selector interface {
	SelectBest(ctx context.Context, criteria model.SelectionCriteria) (*model.SupplierSelection, error)
}

// Placer places one order with retry
type Placer interface {
	PlaceOrder(ctx context.Context, supplier model.SupplierProfile, req *model.PurchaseRequest, retry *placer.RetryConfig) (*model.ProviderOrder, error)
}

// Confirmer polls a placed order until it settles
type Confirmer interface {
	HandleConfirmation(ctx context.Context, supplier, providerOrderID string) *model.ConfirmationStatus
}

// Service buys one line item: select once, then walk primary and fallbacks.
type Service struct {
	selector  Selector
	placer    Placer
	confirmer Confirmer
	calc      *cost.Calculator
	now       timeutil.NowFunc
	logger    logger.Logger
}

// NewService creates a Service
func NewService(selector Selector, placer Placer, confirmer Confirmer, calc *cost.Calculator, log logger.Logger) *Service {
	return &Service{
		selector:  selector,
		placer:    placer,
		confirmer: confirmer,
		calc:      calc,
		now:       time.Now,
		logger:    log,
	}
}

// ExecutePurchase never returns an error; failures are reported in the result.
func (s *Service) ExecutePurchase(ctx context.Context, req *model.PurchaseRequest) *model.PurchaseResult {
	ctx = logger.WithOrderID(ctx, req.OrderID)
	result := &model.PurchaseResult{
		SKU:                req.SKU,
		ProviderUsed:       ProviderNone,
		AttemptedProviders: []string{},
	}

	selection, err := s.selector.SelectBest(ctx, req.Criteria())
	if err != nil {
		s.logger.Warnf(ctx, "[Purchase] selection for sku %s failed: %v", req.SKU, err)
		result.ErrorCode = errorutil.CodeOf(err)
		result.Error = errorutil.Message(err)
		return result
	}

	chain := make([]model.SupplierProfile, 0, 1+len(selection.Fallbacks))
	chain = append(chain, selection.Supplier)
	chain = append(chain, selection.Fallbacks...)

	var lastErr error
	for i, supplier := range chain {
		result.AttemptedProviders = append(result.AttemptedProviders, supplier.Name)
		result.FallbackAttempts = i

		order, err := s.placer.PlaceOrder(ctx, supplier, req, nil)
		if err != nil {
			lastErr = err
			s.logger.Warnf(ctx, "[Purchase] sku %s with %s failed: %v", req.SKU, supplier.Name, err)
			continue
		}

		breakdown := s.calc.TotalCost(supplier, req.Quantity, req.Destination)
		result.Success = true
		result.ProviderUsed = supplier.Name
		result.ProviderOrderID = order.ProviderOrderID
		result.TotalCost = breakdown.Total
		result.EstimatedDelivery = s.now().AddDate(0, 0, supplier.DeliveryDays)

		s.logger.Infof(ctx, "[Purchase] sku %s bought from %s as %s for %.2f (fallbacks used: %d)",
			req.SKU, supplier.Name, order.ProviderOrderID, breakdown.Total, i)

		result.Confirmation = s.confirmer.HandleConfirmation(ctx, supplier.Name, order.ProviderOrderID)
		return result
	}

	result.ErrorCode = errorutil.CodeOf(lastErr)
	result.Error = fmt.Sprintf("all %d providers failed, last error: %s", len(chain), errorutil.Message(lastErr))
	s.logger.Errorf(ctx, "[Purchase] sku %s could not be bought: %s", req.SKU, result.Error)
	return result
}
