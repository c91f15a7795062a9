package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BundleWarning records member products that could not be resolved while
// pricing a bundle.
type BundleWarning struct {
	BundleID          uint
	MissingProductIDs []uint
	Reason            string
}

// BundleResult summarises a bundle markup run.
type BundleResult struct {
	RunID            uuid.UUID
	UpdatedCount     int
	SkippedBundleIDs []uint
	Warnings         []BundleWarning
}

// BundleMarkupEngine reprices every bundle from its members' original prices.
type BundleMarkupEngine struct {
	bundles BundleStore
	prices  PriceResolver
	opts    options
}

func NewBundleMarkupEngine(b BundleStore, r PriceResolver, opts ...Option) *BundleMarkupEngine {
	return &BundleMarkupEngine{bundles: b, prices: r, opts: buildOptions(opts)}
}

// ApplyBundleMarkup sets each bundle's original price to the sum of its
// members' original prices (one term per list entry, duplicates included)
// and its current price to round(sum * (1 + percentage/100)). Savings is
// the rounded difference and the discount percentage is reset to zero.
//
// Members missing from the catalog are left out of the sum with a warning.
// A bundle with nothing left to price is skipped and its stored prices are
// not touched. A write failure stops the run with a *PartialApplyFailure.
func (e *BundleMarkupEngine) ApplyBundleMarkup(ctx context.Context, percentage decimal.Decimal) (*BundleResult, error) {
	if percentage.IsNegative() {
		return nil, fmt.Errorf("%w: bundle markup %s is negative", ErrInvalidPercentage, percentage)
	}

	bundles, err := e.bundles.ListBundles(ctx)
	if err != nil {
		return nil, bundleStoreError("list bundles", err)
	}

	prices, err := e.prices.GetOriginalPrices(ctx, memberIDs(bundles))
	if err != nil {
		return nil, catalogError("resolve bundle member prices", err)
	}

	res := &BundleResult{RunID: e.opts.newRunID()}
	log := logger.With().Str("run_id", res.RunID.String()).Str("operation", string(OperationBundleMarkup)).Logger()
	log.Info().Int("bundles", len(bundles)).Str("percentage", percentage.String()).Msg("pricing run started")

	factor := markupFactor(percentage)
	committed := make([]uint, 0, len(bundles))
	for _, b := range bundles {
		sum, missing := sumMembers(b, prices)
		if len(missing) > 0 {
			w := BundleWarning{BundleID: b.ID, MissingProductIDs: missing, Reason: "member products not found"}
			res.Warnings = append(res.Warnings, w)
			log.Warn().Uint("bundle_id", b.ID).Interface("missing", missing).Msg("bundle references missing products")
		}
		if sum.IsZero() {
			res.SkippedBundleIDs = append(res.SkippedBundleIDs, b.ID)
			log.Warn().Uint("bundle_id", b.ID).Msg("bundle skipped, no priced members")
			continue
		}

		current := roundPrice(sum.Mul(factor), e.opts.places)
		update := BundlePricing{
			BundleID:           b.ID,
			OriginalPrice:      sum,
			CurrentPrice:       current,
			Savings:            roundPrice(current.Sub(sum), e.opts.places),
			DiscountPercentage: decimal.Zero,
		}
		if err := e.bundles.UpdateBundlePricing(ctx, update); err != nil {
			log.Error().Err(err).Uint("bundle_id", b.ID).Int("updated_count", res.UpdatedCount).Msg("pricing run aborted")
			return nil, &PartialApplyFailure{
				Operation:          OperationBundleMarkup,
				RunID:              res.RunID,
				FailedRange:        -1,
				CommittedBundleIDs: committed,
				FailedBundleID:     b.ID,
				UpdatedCount:       res.UpdatedCount,
				Cause:              bundleStoreError(fmt.Sprintf("update bundle %d", b.ID), err),
			}
		}
		committed = append(committed, b.ID)
		res.UpdatedCount++
	}

	log.Info().
		Int("updated_count", res.UpdatedCount).
		Int("skipped", len(res.SkippedBundleIDs)).
		Msg("pricing run complete")
	e.opts.notify(ctx, RunEvent{
		RunID:            res.RunID,
		Operation:        OperationBundleMarkup,
		UpdatedCount:     res.UpdatedCount,
		Percentage:       &percentage,
		SkippedBundleIDs: res.SkippedBundleIDs,
	})
	return res, nil
}

// memberIDs returns the distinct member ids of all bundles, in first-seen
// order. Id 0 never names a product and is not looked up.
func memberIDs(bundles []Bundle) []uint {
	seen := make(map[uint]struct{})
	var ids []uint
	for _, b := range bundles {
		for _, id := range b.MemberProductIDs {
			if id == 0 {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func sumMembers(b Bundle, prices map[uint]decimal.Decimal) (decimal.Decimal, []uint) {
	sum := decimal.Zero
	var missing []uint
	for _, id := range b.MemberProductIDs {
		price, ok := prices[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		sum = sum.Add(price)
	}
	return sum, missing
}
