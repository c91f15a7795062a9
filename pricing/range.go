package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Context selects the percentage rules applied by Validate.
type Context string

const (
	ContextMarkup   Context = "markup"
	ContextDiscount Context = "discount"
)

var hundred = decimal.NewFromInt(100)

// PriceRange is a band of original (supplier) prices, inclusive on both ends.
type PriceRange struct {
	MinValue decimal.Decimal
	MaxValue decimal.Decimal
	Label    string
}

// Contains reports whether price lies within [MinValue, MaxValue].
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.MinValue) && price.LessThanOrEqual(r.MaxValue)
}

func (r PriceRange) String() string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("%s-%s", r.MinValue, r.MaxValue)
}

func validateBounds(minValue, maxValue decimal.Decimal) error {
	if minValue.IsNegative() {
		return fmt.Errorf("%w: min %s is negative", ErrInvalidRange, minValue)
	}
	if maxValue.LessThan(minValue) {
		return fmt.Errorf("%w: max %s is below min %s", ErrInvalidRange, maxValue, minValue)
	}
	return nil
}

// Validate checks a range and its percentage for the given context.
// Markup percentages have no upper bound; discounts cannot exceed 100.
func Validate(minValue, maxValue, percentage decimal.Decimal, ctx Context) error {
	if err := validateBounds(minValue, maxValue); err != nil {
		return err
	}
	if percentage.IsNegative() {
		return fmt.Errorf("%w: %s percentage %s is negative", ErrInvalidPercentage, ctx, percentage)
	}
	if ctx == ContextDiscount && percentage.GreaterThan(hundred) {
		return fmt.Errorf("%w: discount %s exceeds 100", ErrInvalidPercentage, percentage)
	}
	return nil
}

// RangeAdjustment pairs a price range with the percentage to apply to it.
type RangeAdjustment struct {
	Range      PriceRange
	Percentage decimal.Decimal
}

func (a RangeAdjustment) Validate(ctx Context) error {
	return Validate(a.Range.MinValue, a.Range.MaxValue, a.Percentage, ctx)
}

func validateAdjustments(adjustments []RangeAdjustment, ctx Context) error {
	for i, a := range adjustments {
		if err := a.Validate(ctx); err != nil {
			return fmt.Errorf("range %d: %w", i, err)
		}
	}
	return nil
}
