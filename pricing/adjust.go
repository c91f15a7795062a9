package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplyResult summarises a markup or discount run.
type ApplyResult struct {
	RunID uuid.UUID
	// UpdatedCount is the number of rows written across all ranges. A product
	// matched by two ranges is counted twice.
	UpdatedCount int
}

// transform derives a product's new current price for one range.
type transform func(p Product, factor decimal.Decimal, places int32) decimal.Decimal

// rangeApplier runs one read-then-write pass per range, in caller order.
// Each range is written as a single batch; ranges are not wrapped in a
// common transaction.
type rangeApplier struct {
	catalog   Catalog
	operation Operation
	context   Context
	factor    func(decimal.Decimal) decimal.Decimal
	transform transform
	opts      options
}

func (a *rangeApplier) apply(ctx context.Context, adjustments []RangeAdjustment) (*ApplyResult, error) {
	if err := validateAdjustments(adjustments, a.context); err != nil {
		return nil, err
	}

	res := &ApplyResult{RunID: a.opts.newRunID()}
	log := logger.With().Str("run_id", res.RunID.String()).Str("operation", string(a.operation)).Logger()
	log.Info().Int("ranges", len(adjustments)).Msg("pricing run started")

	basis := make(map[uint]decimal.Decimal)
	for i, adj := range adjustments {
		n, err := a.applyRange(ctx, res.RunID, adj, basis)
		if err != nil {
			log.Error().Err(err).
				Int("range", i).
				Int("updated_count", res.UpdatedCount).
				Msg("pricing run aborted")
			return nil, &PartialApplyFailure{
				Operation:       a.operation,
				RunID:           res.RunID,
				CompletedRanges: i,
				FailedRange:     i,
				UpdatedCount:    res.UpdatedCount,
				Cause:           err,
			}
		}
		res.UpdatedCount += n
		log.Debug().
			Str("range", adj.Range.String()).
			Str("percentage", adj.Percentage.String()).
			Int("rows", n).
			Msg("range applied")
	}

	log.Info().Int("updated_count", res.UpdatedCount).Msg("pricing run complete")
	a.opts.notify(ctx, RunEvent{
		RunID:        res.RunID,
		Operation:    a.operation,
		UpdatedCount: res.UpdatedCount,
		Ranges:       len(adjustments),
	})
	return res, nil
}

// applyRange writes one range. basis holds each product's current price as
// first read in this run; later ranges transform that price, not an earlier
// range's write.
func (a *rangeApplier) applyRange(ctx context.Context, runID uuid.UUID, adj RangeAdjustment, basis map[uint]decimal.Decimal) (int, error) {
	products, err := a.catalog.ListProductsInPriceRange(ctx, adj.Range.MinValue, adj.Range.MaxValue)
	if err != nil {
		return 0, catalogError("list products in range "+adj.Range.String(), err)
	}
	if len(products) == 0 {
		return 0, nil
	}

	factor := a.factor(adj.Percentage)
	batch := PriceBatch{
		RunID:      runID,
		Operation:  a.operation,
		Percentage: adj.Percentage,
		Updates:    make([]PriceUpdate, 0, len(products)),
	}
	for _, p := range products {
		previous := p.CurrentPrice
		if first, ok := basis[p.ID]; ok {
			p.CurrentPrice = first
		} else {
			basis[p.ID] = p.CurrentPrice
		}
		batch.Updates = append(batch.Updates, PriceUpdate{
			ProductID:     p.ID,
			PreviousPrice: previous,
			NewPrice:      a.transform(p, factor, a.opts.places),
		})
	}

	if err := a.catalog.UpdateProductPrices(ctx, batch); err != nil {
		return 0, catalogError("update prices for range "+adj.Range.String(), err)
	}
	return len(batch.Updates), nil
}

// MarkupEngine sets current prices to a markup over original prices.
type MarkupEngine struct {
	applier rangeApplier
}

func NewMarkupEngine(c Catalog, opts ...Option) *MarkupEngine {
	return &MarkupEngine{applier: rangeApplier{
		catalog:   c,
		operation: OperationMarkup,
		context:   ContextMarkup,
		factor:    markupFactor,
		transform: func(p Product, factor decimal.Decimal, places int32) decimal.Decimal {
			return roundPrice(p.OriginalPrice.Mul(factor), places)
		},
		opts: buildOptions(opts),
	}}
}

// ApplyMarkup sets, for every product whose original price is in a range,
// currentPrice = round(originalPrice * (1 + percentage/100)).
// The basis is the unchanged original price, so repeating a run yields the
// same prices. When ranges overlap the last one in the list wins.
//
// Every adjustment is validated before anything is read or written. A
// storage error stops the run with a *PartialApplyFailure; ranges already
// written stay written.
func (e *MarkupEngine) ApplyMarkup(ctx context.Context, adjustments []RangeAdjustment) (*ApplyResult, error) {
	return e.applier.apply(ctx, adjustments)
}

// DiscountEngine reduces current prices, using original prices only to
// decide range membership.
type DiscountEngine struct {
	applier rangeApplier
}

func NewDiscountEngine(c Catalog, opts ...Option) *DiscountEngine {
	return &DiscountEngine{applier: rangeApplier{
		catalog:   c,
		operation: OperationDiscount,
		context:   ContextDiscount,
		factor:    discountFactor,
		transform: func(p Product, factor decimal.Decimal, places int32) decimal.Decimal {
			return roundPrice(p.CurrentPrice.Mul(factor), places)
		},
		opts: buildOptions(opts),
	}}
}

// ApplyDiscount sets, for every product whose original price is in a range,
// currentPrice = round(currentPrice * (1 - percentage/100)), where
// currentPrice is the price the product had before this run. Ranges in one
// run do not compound: when ranges overlap the last one in the list wins.
// Separate runs do compound multiplicatively, so running the same discount
// twice lowers prices twice. Failure semantics match ApplyMarkup.
func (e *DiscountEngine) ApplyDiscount(ctx context.Context, adjustments []RangeAdjustment) (*ApplyResult, error) {
	return e.applier.apply(ctx, adjustments)
}
