package selector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"oip/autopurchase/internal/business/cost"
	"oip/autopurchase/internal/model"
	"oip/autopurchase/internal/provider"
	"oip/autopurchase/pkg/errorutil"
	"oip/autopurchase/pkg/logger"
)

// Scoring weights
const (
	weightPrice        = 0.40
	weightDelivery     = 0.25
	weightReliability  = 0.25
	weightAvailability = 0.10
	preferredBonus     = 10.0
)

// Config holds the selection thresholds
type Config struct {
	MinReliabilityScore    float64
	FallbackProviderCount  int
	MaxReasonablePrice     float64
	DefaultMaxDeliveryDays int
}

// DefaultConfig returns the production thresholds
func DefaultConfig() Config {
	return Config{
		MinReliabilityScore:    60,
		FallbackProviderCount:  2,
		MaxReasonablePrice:     1000,
		DefaultMaxDeliveryDays: 30,
	}
}

// AvailabilityChecker is the part of availability.Checker the selector needs.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, supplier, sku string, quantity int) *model.AvailabilityResult
}

// Candidate is an eligible supplier with its score.
type Candidate struct {
	Supplier model.SupplierProfile `json:"provider"`
	Cost     model.CostBreakdown   `json:"cost"`
	Score    float64               `json:"score"`
}

// Selector ranks eligible suppliers by weighted multi-criteria score.
type Selector struct {
	registry *provider.Registry
	checker  AvailabilityChecker
	calc     *cost.Calculator
	cfg      Config
	now      func() time.Time
	logger   logger.Logger
}

// NewSelector creates a Selector
func NewSelector(registry *provider.Registry, checker AvailabilityChecker, calc *cost.Calculator, cfg Config, log logger.Logger) *Selector {
	if cfg.MaxReasonablePrice <= 0 {
		cfg.MaxReasonablePrice = DefaultConfig().MaxReasonablePrice
	}
	if cfg.DefaultMaxDeliveryDays <= 0 {
		cfg.DefaultMaxDeliveryDays = DefaultConfig().DefaultMaxDeliveryDays
	}
	if cfg.FallbackProviderCount < 0 {
		cfg.FallbackProviderCount = 0
	}
	return &Selector{
		registry: registry,
		checker:  checker,
		calc:     calc,
		cfg:      cfg,
		now:      time.Now,
		logger:   log,
	}
}

// SelectBest returns the top ranked supplier and its fallbacks, or NO_PROVIDER_AVAILABLE.
func (s *Selector) SelectBest(ctx context.Context, criteria model.SelectionCriteria) (*model.SupplierSelection, error) {
	ranked := s.Rank(ctx, criteria)
	if len(ranked) == 0 {
		return nil, errorutil.NonRetriable(errorutil.CodeNoProviderAvailable,
			fmt.Sprintf("no provider available for sku %s to %s", criteria.SKU, criteria.Destination.Country))
	}

	primary := ranked[0]
	limit := len(ranked) - 1
	if limit > s.cfg.FallbackProviderCount {
		limit = s.cfg.FallbackProviderCount
	}
	fallbacks := make([]model.SupplierProfile, 0, limit)
	for _, c := range ranked[1 : 1+limit] {
		fallbacks = append(fallbacks, c.Supplier)
	}

	s.logger.Infof(ctx, "[Selector] sku=%s selected=%s score=%.2f fallbacks=%d",
		criteria.SKU, primary.Supplier.Name, primary.Score, len(fallbacks))

	return &model.SupplierSelection{
		Supplier:          primary.Supplier,
		Cost:              primary.Cost,
		TotalCost:         primary.Cost.Total,
		EstimatedDelivery: s.now().AddDate(0, 0, primary.Supplier.DeliveryDays),
		ConfidenceScore:   primary.Score,
		Fallbacks:         fallbacks,
	}, nil
}

// Rank returns every eligible supplier, best first. Equal scores keep registry order.
func (s *Selector) Rank(ctx context.Context, criteria model.SelectionCriteria) []Candidate {
	eligible := s.eligible(ctx, criteria)

	candidates := make([]Candidate, 0, len(eligible))
	for _, supplier := range eligible {
		breakdown := s.calc.TotalCost(supplier, criteria.Quantity, criteria.Destination)
		candidates = append(candidates, Candidate{
			Supplier: supplier,
			Cost:     breakdown,
			Score:    s.score(supplier, breakdown, criteria),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// eligible applies the filters in order: excluded, destination, availability, reliability, price cap
func (s *Selector) eligible(ctx context.Context, criteria model.SelectionCriteria) []model.SupplierProfile {
	excluded := lowerSet(criteria.ExcludeProviders)
	out := make([]model.SupplierProfile, 0)

	for _, gw := range s.registry.All() {
		name := gw.Provider().String()

		if excluded[name] {
			continue
		}
		if !gw.Serves(criteria.Destination.Country) {
			continue
		}

		avail := s.checker.CheckAvailability(ctx, name, criteria.SKU, criteria.Quantity)
		if !avail.Available {
			s.logger.Debugf(ctx, "[Selector] %s unavailable for %s: %s", name, criteria.SKU, avail.Error)
			continue
		}

		quote, err := gw.Quote(ctx, criteria.SKU, criteria.Quantity)
		if err != nil {
			s.logger.Warnf(ctx, "[Selector] %s quote failed for %s: %v", name, criteria.SKU, err)
			continue
		}
		quote.Available = true

		if quote.ReliabilityScore < s.cfg.MinReliabilityScore {
			continue
		}

		if criteria.MaxPrice != nil {
			total := s.calc.TotalCost(*quote, criteria.Quantity, criteria.Destination).Total
			if total > *criteria.MaxPrice {
				continue
			}
		}

		out = append(out, *quote)
	}

	return out
}

func (s *Selector) score(supplier model.SupplierProfile, breakdown model.CostBreakdown, criteria model.SelectionCriteria) float64 {
	priceScore := math.Max(0, 100-breakdown.Total/s.cfg.MaxReasonablePrice*100)

	maxDelivery := s.cfg.DefaultMaxDeliveryDays
	if criteria.MaxDeliveryDays != nil && *criteria.MaxDeliveryDays > 0 {
		maxDelivery = *criteria.MaxDeliveryDays
	}
	deliveryScore := 0.0
	if supplier.DeliveryDays <= maxDelivery {
		deliveryScore = math.Max(0, 100-float64(supplier.DeliveryDays)/float64(maxDelivery)*100)
	}

	availabilityScore := 0.0
	if supplier.Available {
		availabilityScore = 100
	}

	bonus := 0.0
	if lowerSet(criteria.PreferredProviders)[strings.ToLower(supplier.Name)] {
		bonus = preferredBonus
	}

	total := priceScore*weightPrice +
		deliveryScore*weightDelivery +
		supplier.ReliabilityScore*weightReliability +
		availabilityScore*weightAvailability +
		bonus

	return math.Min(100, math.Max(0, total))
}

func lowerSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = true
	}
	return set
}
