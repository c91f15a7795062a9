package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// RangePopulation is the number of products whose original price falls in Range.
type RangePopulation struct {
	Range        PriceRange
	ProductCount int
}

// Populations is the result of a population query. Ranges keeps the order
// of the query, so Ranges[i] answers the i-th input range.
type Populations struct {
	TotalProducts int
	Ranges        []RangePopulation

	// OverlappingProducts is the number of products counted in more than
	// one range.
	OverlappingProducts int
}

// Overlapping reports whether any product was counted in more than one range.
func (p *Populations) Overlapping() bool {
	return p.OverlappingProducts > 0
}

// RangeCatalog answers how many products sit in each price band. It never
// writes to the catalog.
type RangeCatalog struct {
	catalog Catalog
}

func NewRangeCatalog(c Catalog) *RangeCatalog {
	return &RangeCatalog{catalog: c}
}

// ComputeRangePopulations counts products per range in a single pass over
// the original prices. Counts are independent per range: a product inside
// two overlapping ranges is counted in both.
func (rc *RangeCatalog) ComputeRangePopulations(ctx context.Context, ranges []PriceRange) (*Populations, error) {
	for i, r := range ranges {
		if err := validateBounds(r.MinValue, r.MaxValue); err != nil {
			return nil, fmt.Errorf("range %d: %w", i, err)
		}
	}

	prices, err := rc.catalog.ListOriginalPrices(ctx)
	if err != nil {
		return nil, catalogError("list original prices", err)
	}

	return countPopulations(prices, ranges), nil
}

func countPopulations(prices []decimal.Decimal, ranges []PriceRange) *Populations {
	out := &Populations{
		TotalProducts: len(prices),
		Ranges:        make([]RangePopulation, len(ranges)),
	}
	for i, r := range ranges {
		out.Ranges[i].Range = r
	}
	for _, price := range prices {
		hits := 0
		for i, r := range ranges {
			if r.Contains(price) {
				out.Ranges[i].ProductCount++
				hits++
			}
		}
		if hits > 1 {
			out.OverlappingProducts++
		}
	}
	return out
}
