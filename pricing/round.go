package pricing

import "github.com/shopspring/decimal"

// DefaultRoundingPlaces is the currency minor-unit granularity used when
// no other value is configured.
const DefaultRoundingPlaces int32 = 2

var one = decimal.NewFromInt(1)

// roundPrice rounds half away from zero, which is half-up for the
// non-negative prices handled here.
func roundPrice(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// markupFactor returns 1 + p/100.
func markupFactor(percentage decimal.Decimal) decimal.Decimal {
	return one.Add(percentage.Shift(-2))
}

// discountFactor returns 1 - p/100.
func discountFactor(percentage decimal.Decimal) decimal.Decimal {
	return one.Sub(percentage.Shift(-2))
}
