package export

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// FormatPrice renders a price with 2 decimals, or 8 below 1.0.
func FormatPrice(price float64) string {
	d := decimal.NewFromFloat(price)
	return d.StringFixed(places(d))
}

// roundPrice rounds to the same precision FormatPrice shows.
func roundPrice(price float64) float64 {
	d := decimal.NewFromFloat(price)
	return d.Round(places(d)).InexactFloat64()
}

func places(d decimal.Decimal) int32 {
	if d.Abs().LessThan(one) {
		return 8
	}
	return 2
}
