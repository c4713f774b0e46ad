// Package currency converts and formats storefront prices.
package currency

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// UsdToUzsRate is the fixed conversion rate used for display prices.
const UsdToUzsRate = 12500

var (
	usdToUzs = decimal.NewFromInt(UsdToUzsRate)
	half     = decimal.NewFromFloat(0.5)
)

// ConvertUsdToUzs converts a USD amount to whole UZS. Halves round up, toward
// positive infinity, so -1.5 becomes -1.
func ConvertUsdToUzs(usd float64) float64 {
	v, _ := decimal.NewFromFloat(usd).Mul(usdToUzs).Add(half).Floor().Float64()
	return v
}

// FormatUzsWithSpaces renders e.g. 1250000 as "1 250 000 so'm".
func FormatUzsWithSpaces(amount float64) string {
	n := int64(math.Round(amount))
	return humanize.FormatInteger("# ###.", int(n)) + " " + Symbol()
}

func Symbol() string { return "so'm" }

// FromMinorUnits turns the backend's minor-unit price string ("1250000" tiyin)
// into a UZS amount. Malformed input yields 0.
func FromMinorUnits(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	v, _ := d.Div(decimal.NewFromInt(100)).Float64()
	return v
}
