package cost

import (
	"sort"

	"github.com/shopspring/decimal"

	"oip/autopurchase/internal/model"
)

var (
	extraUnitShippingRate = decimal.NewFromFloat(0.3)
	expressPremium        = decimal.NewFromFloat(1.5)
)

// expressMaxDays is the delivery time at or below which the express premium applies.
const expressMaxDays = 2

// Calculator computes landed cost for a supplier quote.
type Calculator struct{}

// NewCalculator creates a Calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// RankedCost pairs a supplier with its computed cost.
type RankedCost struct {
	Supplier model.SupplierProfile `json:"provider"`
	Cost     model.CostBreakdown   `json:"cost"`
}

// TotalCost returns the landed cost of buying quantity units from supplier.
// Every sub-result is rounded half-up to 2 decimals before it feeds the next step.
func (c *Calculator) TotalCost(supplier model.SupplierProfile, quantity int, destination model.Address) model.CostBreakdown {
	if quantity < 1 {
		quantity = 1
	}
	qty := decimal.NewFromInt(int64(quantity))

	base := round2(decimal.NewFromFloat(supplier.BasePrice).Mul(qty))
	shipping := c.shippingCost(supplier, quantity, destination)
	taxes := round2(base.Add(shipping).Mul(decimal.NewFromFloat(TaxRate(destination.Country))))
	fees := round2(base.Mul(decimal.NewFromFloat(ProcessingFeeRate(supplier.Name))))
	total := round2(base.Add(shipping).Add(taxes).Add(fees))

	return model.CostBreakdown{
		BasePrice:    base.InexactFloat64(),
		ShippingCost: shipping.InexactFloat64(),
		Taxes:        taxes.InexactFloat64(),
		Fees:         fees.InexactFloat64(),
		Total:        total.InexactFloat64(),
	}
}

// shippingCost applies extra units, distance and the express premium, in that order
func (c *Calculator) shippingCost(supplier model.SupplierProfile, quantity int, destination model.Address) decimal.Decimal {
	flat := decimal.NewFromFloat(supplier.ShippingCost)

	shipping := flat
	if quantity > 1 {
		extra := flat.Mul(extraUnitShippingRate).Mul(decimal.NewFromInt(int64(quantity - 1)))
		shipping = shipping.Add(extra)
	}
	shipping = round2(shipping)

	multiplier := DistanceMultiplier(supplier.HomeCountry, destination.Country)
	shipping = round2(shipping.Mul(decimal.NewFromFloat(multiplier)))

	if supplier.DeliveryDays <= expressMaxDays {
		shipping = round2(shipping.Mul(expressPremium))
	}

	return shipping
}

// CompareCosts ranks suppliers by total cost, cheapest first. Ties keep input order.
func (c *Calculator) CompareCosts(suppliers []model.SupplierProfile, quantity int, destination model.Address) []RankedCost {
	ranked := make([]RankedCost, 0, len(suppliers))
	for _, s := range suppliers {
		ranked = append(ranked, RankedCost{
			Supplier: s,
			Cost:     c.TotalCost(s, quantity, destination),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Cost.Total < ranked[j].Cost.Total
	})

	return ranked
}

// CalculateSavings returns most expensive minus cheapest over a ranked list.
func (c *Calculator) CalculateSavings(ranked []RankedCost) float64 {
	if len(ranked) < 2 {
		return 0
	}

	cheapest := decimal.NewFromFloat(ranked[0].Cost.Total)
	priciest := decimal.NewFromFloat(ranked[len(ranked)-1].Cost.Total)
	return round2(priciest.Sub(cheapest)).InexactFloat64()
}

// round2 rounds half away from zero, which is half-up for the non-negative amounts used here
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
