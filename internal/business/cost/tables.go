package cost

import "strings"

const (
	defaultTaxRate = 0.20
	defaultFeeRate = 0.025
)

// taxRates by destination country
var taxRates = map[string]float64{
	"ES": 0.21, "PT": 0.23, "FR": 0.20, "DE": 0.19, "IT": 0.22,
	"NL": 0.21, "BE": 0.21, "IE": 0.23, "AT": 0.20, "PL": 0.23,
	"GB": 0.20, "CH": 0.077, "NO": 0.25,
	"US": 0.07, "CA": 0.13, "MX": 0.16,
	"CN": 0.13, "JP": 0.10, "KR": 0.10, "IN": 0.18,
	"BR": 0.17, "AR": 0.21,
	"AU": 0.10, "NZ": 0.15,
}

// processingFees by supplier name
var processingFees = map[string]float64{
	"amazon":     0.02,
	"ebay":       0.03,
	"aliexpress": 0.035,
	"wish":       0.04,
}

// geo places a country in an economic region and a continent
type geo struct {
	region    string
	continent string
}

var countryGeo = map[string]geo{
	"ES": {"EU", "europe"}, "PT": {"EU", "europe"}, "FR": {"EU", "europe"},
	"DE": {"EU", "europe"}, "IT": {"EU", "europe"}, "NL": {"EU", "europe"},
	"BE": {"EU", "europe"}, "IE": {"EU", "europe"}, "AT": {"EU", "europe"},
	"PL": {"EU", "europe"},
	"GB": {"UK", "europe"}, "CH": {"EFTA", "europe"}, "NO": {"EFTA", "europe"},
	"US": {"USMCA", "north_america"}, "CA": {"USMCA", "north_america"}, "MX": {"USMCA", "north_america"},
	"CN": {"RCEP", "asia"}, "JP": {"RCEP", "asia"}, "KR": {"RCEP", "asia"}, "IN": {"SAARC", "asia"},
	"BR": {"MERCOSUR", "south_america"}, "AR": {"MERCOSUR", "south_america"},
	"AU": {"RCEP", "oceania"}, "NZ": {"RCEP", "oceania"},
}

// Distance multipliers applied to shipping
const (
	multiplierDomestic       = 1.0
	multiplierSameRegion     = 1.2
	multiplierSameContinent  = 1.4
	multiplierIntercontinent = 1.8
)

// TaxRate returns the destination tax rate, 20% when unknown.
func TaxRate(country string) float64 {
	if rate, ok := taxRates[strings.ToUpper(country)]; ok {
		return rate
	}
	return defaultTaxRate
}

// ProcessingFeeRate returns the supplier fee rate, 2.5% when unknown.
func ProcessingFeeRate(supplier string) float64 {
	if rate, ok := processingFees[strings.ToLower(supplier)]; ok {
		return rate
	}
	return defaultFeeRate
}

// DistanceMultiplier compares the supplier's home country with the destination.
// Unknown countries are treated as intercontinental.
func DistanceMultiplier(from, to string) float64 {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from != "" && from == to {
		return multiplierDomestic
	}

	a, okA := countryGeo[from]
	b, okB := countryGeo[to]
	if !okA || !okB {
		return multiplierIntercontinent
	}

	switch {
	case a.region == b.region:
		return multiplierSameRegion
	case a.continent == b.continent:
		return multiplierSameContinent
	default:
		return multiplierIntercontinent
	}
}
