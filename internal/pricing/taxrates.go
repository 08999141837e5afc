package pricing

import "math"

// VAT rates by delivery country. Countries without an entry are taxed at
// zero, which keeps the tax adapters inert for them.
var vatRates = map[string]float64{
	"CH": 0.081,
	"DE": 0.19,
	"AT": 0.20,
	"FR": 0.20,
	"NL": 0.21,
	"LI": 0.081,
}

// TaxRateForCountry returns the VAT rate applied to taxable rows for orders
// delivered into the given country.
func TaxRateForCountry(countryCode string) float64 {
	return vatRates[countryCode]
}

// taxFromGross extracts the tax portion contained in a tax-inclusive amount.
func taxFromGross(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate / (1 + rate)))
}

// taxOnNet computes the tax on top of a tax-exclusive amount.
func taxOnNet(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate))
}
