package cost

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oip/autopurchase/internal/model"
)

func supplier(name, home string, price, shipping float64, days int) model.SupplierProfile {
	return model.SupplierProfile{
		Name:             name,
		HomeCountry:      home,
		BasePrice:        price,
		ShippingCost:     shipping,
		DeliveryDays:     days,
		ReliabilityScore: 90,
		Available:        true,
	}
}

func TestTotalCostDomesticSpain(t *testing.T) {
	calc := NewCalculator()
	got := calc.TotalCost(supplier("amazon", "ES", 100, 10, 5), 1, model.Address{Country: "ES"})

	assert.Equal(t, model.CostBreakdown{
		BasePrice:    100,
		ShippingCost: 10,
		Taxes:        23.10,
		Fees:         2.00,
		Total:        135.10,
	}, got)
}

func TestTotalCostExtraUnits(t *testing.T) {
	calc := NewCalculator()
	got := calc.TotalCost(supplier("amazon", "ES", 100, 10, 5), 3, model.Address{Country: "ES"})

	// 10 + 2 * 30% of 10
	assert.Equal(t, 16.0, got.ShippingCost)
	assert.Equal(t, 300.0, got.BasePrice)
	assert.Equal(t, 66.36, got.Taxes)
	assert.Equal(t, 6.0, got.Fees)
	assert.Equal(t, 388.36, got.Total)
}

func TestTotalCostIntercontinental(t *testing.T) {
	calc := NewCalculator()
	got := calc.TotalCost(supplier("aliexpress", "CN", 40, 5, 15), 1, model.Address{Country: "es"})

	assert.Equal(t, 9.0, got.ShippingCost)
	assert.Equal(t, 10.29, got.Taxes)
	assert.Equal(t, 1.40, got.Fees)
	assert.Equal(t, 60.69, got.Total)
}

func TestTotalCostExpressPremium(t *testing.T) {
	calc := NewCalculator()
	got := calc.TotalCost(supplier("amazon", "ES", 50, 12, 2), 1, model.Address{Country: "ES"})

	assert.Equal(t, 18.0, got.ShippingCost)
}

func TestTotalCostUnknownCountryAndSupplier(t *testing.T) {
	calc := NewCalculator()
	got := calc.TotalCost(supplier("localshop", "", 10, 10, 7), 1, model.Address{Country: "ZZ"})

	assert.Equal(t, 18.0, got.ShippingCost)
	assert.Equal(t, 5.6, got.Taxes)
	assert.Equal(t, 0.25, got.Fees)
	assert.Equal(t, 33.85, got.Total)
}

func TestTotalCostClampsQuantity(t *testing.T) {
	calc := NewCalculator()
	s := supplier("amazon", "ES", 100, 10, 5)
	dest := model.Address{Country: "ES"}

	assert.Equal(t, calc.TotalCost(s, 1, dest), calc.TotalCost(s, 0, dest))
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, "2.21", round2(decimal.RequireFromString("2.205")).StringFixed(2))
	assert.Equal(t, "2.20", round2(decimal.RequireFromString("2.2049")).StringFixed(2))
	assert.Equal(t, "0.01", round2(decimal.RequireFromString("0.005")).StringFixed(2))
}

func TestDistanceMultiplier(t *testing.T) {
	tests := []struct {
		from, to string
		want     float64
	}{
		{"ES", "ES", multiplierDomestic},
		{"DE", "ES", multiplierSameRegion},
		{"GB", "ES", multiplierSameContinent},
		{"US", "ES", multiplierIntercontinent},
		{"US", "CA", multiplierSameRegion},
		{"AU", "CN", multiplierSameRegion},
		{"NZ", "JP", multiplierSameRegion},
		{"IN", "CN", multiplierSameContinent},
		{"", "", multiplierIntercontinent},
		{"XX", "ES", multiplierIntercontinent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DistanceMultiplier(tt.from, tt.to), "%s->%s", tt.from, tt.to)
	}
}

func TestCompareCostsAndSavings(t *testing.T) {
	calc := NewCalculator()
	dest := model.Address{Country: "ES"}
	ranked := calc.CompareCosts([]model.SupplierProfile{
		supplier("wish", "CN", 20, 3, 25),
		supplier("amazon", "ES", 100, 10, 5),
		supplier("aliexpress", "CN", 40, 5, 15),
	}, 1, dest)

	require.Len(t, ranked, 3)
	assert.Equal(t, "wish", ranked[0].Supplier.Name)
	assert.Equal(t, "aliexpress", ranked[1].Supplier.Name)
	assert.Equal(t, "amazon", ranked[2].Supplier.Name)

	want := decimal.NewFromFloat(ranked[2].Cost.Total).Sub(decimal.NewFromFloat(ranked[0].Cost.Total)).Round(2).InexactFloat64()
	assert.Equal(t, want, calc.CalculateSavings(ranked))
	assert.Zero(t, calc.CalculateSavings(ranked[:1]))
}

func TestTotalCostProperties(t *testing.T) {
	calc := NewCalculator()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("total never below base price", prop.ForAll(
		func(price, shipping float64, qty int) bool {
			got := calc.TotalCost(supplier("ebay", "US", price, shipping, 4), qty, model.Address{Country: "FR"})
			return got.Total >= got.BasePrice
		},
		gen.Float64Range(0.01, 1000),
		gen.Float64Range(0, 100),
		gen.IntRange(1, 50),
	))

	properties.Property("total grows with quantity", prop.ForAll(
		func(price, shipping float64, qty int) bool {
			s := supplier("ebay", "US", price, shipping, 4)
			dest := model.Address{Country: "US"}
			return calc.TotalCost(s, qty+1, dest).Total >= calc.TotalCost(s, qty, dest).Total
		},
		gen.Float64Range(0.01, 1000),
		gen.Float64Range(0, 100),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}
