package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"importer/internal/models"
)

// usdRates maps currency codes to their USD exchange rate (1 unit of the
// currency in USD). Conversion always goes source -> USD -> target.
var usdRates = map[string]float64{
	"USD": 1.0,
	"EUR": 1.09,
	"GBP": 1.27,
	"CAD": 0.74,
	"AUD": 0.66,
	"NZD": 0.61,
	"JPY": 0.0067,
	"SEK": 0.095,
	"NOK": 0.094,
	"DKK": 0.146,
	"CHF": 1.13,
	"PLN": 0.25,
	"INR": 0.012,
	"BRL": 0.18,
	"MXN": 0.059,
}

// regionCurrencies maps known region name variants (lower-cased) to ISO
// currency codes. Anything unrecognized falls back to USD.
var regionCurrencies = map[string]string{
	"united states":  "USD",
	"usa":            "USD",
	"us":             "USD",
	"united kingdom": "GBP",
	"uk":             "GBP",
	"great britain":  "GBP",
	"europe":         "EUR",
	"european union": "EUR",
	"germany":        "EUR",
	"france":         "EUR",
	"spain":          "EUR",
	"italy":          "EUR",
	"netherlands":    "EUR",
	"ireland":        "EUR",
	"canada":         "CAD",
	"australia":      "AUD",
	"new zealand":    "NZD",
	"japan":          "JPY",
	"sweden":         "SEK",
	"norway":         "NOK",
	"denmark":        "DKK",
	"switzerland":    "CHF",
	"poland":         "PLN",
	"india":          "INR",
	"brazil":         "BRL",
	"mexico":         "MXN",
}

// CurrencyForRegion resolves a region name to its ISO currency code,
// defaulting to USD for anything unrecognized.
func CurrencyForRegion(region string) string {
	if code, ok := regionCurrencies[strings.ToLower(strings.TrimSpace(region))]; ok {
		return code
	}
	return "USD"
}

// Convert converts an amount between currencies through USD. Unknown
// currencies are treated as USD.
func Convert(amount float64, from, to string) float64 {
	if from == to {
		return amount
	}
	fromRate, ok := usdRates[from]
	if !ok {
		fromRate = 1.0
	}
	toRate, ok := usdRates[to]
	if !ok {
		toRate = 1.0
	}
	return amount * fromRate / toRate
}

// ApplyRounding normalizes a price to the configured rounding policy. Fixed
// suffixes take floor(price)+suffix so the fractional part of every published
// price is exactly the configured value; ".00" rounds to the nearest integer;
// any other policy parses as a literal fraction in [0,1). Prices at or below
// zero round to zero.
func ApplyRounding(price float64, policy string) float64 {
	if price <= 0 {
		return 0
	}
	switch policy {
	case ".99", ".95", ".90", ".50", ".49":
		suffix, _ := strconv.ParseFloat("0"+policy, 64)
		return math.Floor(price) + suffix
	case ".00":
		return math.Round(price)
	}
	if fraction, err := strconv.ParseFloat(policy, 64); err == nil && fraction >= 0 && fraction < 1 {
		return math.Floor(price) + fraction
	}
	return price
}

// ParsePrice parses a decimal price string, treating anything invalid as 0.
func ParsePrice(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatPrice materializes a price as a fixed two-decimal-place string.
func FormatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// ApplyPricing runs one variant through the repricing pipeline: currency
// conversion, retail multiplier, compare-at recomputation, then rounding.
// It is pure and total; invalid price strings are treated as 0.
func ApplyPricing(variant models.ProductVariant, settings models.StoreSettings, sourceCurrency, targetCurrency string) models.ProductVariant {
	price := ParsePrice(variant.Price)

	var compareAt float64
	hasCompareAt := false
	if variant.CompareAtPrice != nil {
		compareAt = ParsePrice(*variant.CompareAtPrice)
		hasCompareAt = compareAt > 0
	}

	if sourceCurrency != targetCurrency {
		price = Convert(price, sourceCurrency, targetCurrency)
		if hasCompareAt {
			compareAt = Convert(compareAt, sourceCurrency, targetCurrency)
		}
	}

	if !settings.RetailPriceManual && settings.RetailPriceMultiplier != 1 {
		price *= settings.RetailPriceMultiplier
	}

	// Manual compare-at mode keeps the scraped value through currency
	// conversion only; otherwise it is recomputed from the final price.
	if !settings.CompareAtPriceManual && settings.CompareAtPriceMultiplier > 0 {
		compareAt = price * settings.CompareAtPriceMultiplier
		hasCompareAt = true
	}

	price = ApplyRounding(price, settings.PriceRounding)
	if hasCompareAt {
		compareAt = ApplyRounding(compareAt, settings.PriceRounding)
	}

	variant.Price = FormatPrice(price)
	if hasCompareAt {
		formatted := FormatPrice(compareAt)
		variant.CompareAtPrice = &formatted
	} else {
		variant.CompareAtPrice = nil
	}
	return variant
}

// ApplyToProduct reprices every variant of a product in place. When uniform
// variant pricing is enabled, all variants take the first variant's prices.
func ApplyToProduct(product *models.ScrapedProduct, settings models.StoreSettings, sourceCurrency, targetCurrency string) {
	for i := range product.Variants {
		product.Variants[i] = ApplyPricing(product.Variants[i], settings, sourceCurrency, targetCurrency)
	}
	if settings.VariantPricing && len(product.Variants) > 1 {
		first := product.Variants[0]
		for i := 1; i < len(product.Variants); i++ {
			product.Variants[i].Price = first.Price
			if first.CompareAtPrice != nil {
				compareAt := *first.CompareAtPrice
				product.Variants[i].CompareAtPrice = &compareAt
			} else {
				product.Variants[i].CompareAtPrice = nil
			}
		}
	}
}
