package domain

import "github.com/shopspring/decimal"

var roundingThreshold = decimal.NewFromInt(1000)

// SmartRound keeps converted volumes readable without throwing away
// precision on small values: four decimal places up to 1000, two above.
// Applied to final converted values only, never to intermediate rates.
func SmartRound(v decimal.Decimal) decimal.Decimal {
	if v.LessThanOrEqual(roundingThreshold) {
		return v.Round(4)
	}
	return v.Round(2)
}
