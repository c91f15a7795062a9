package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Operation names a pricing run kind. It is stored with every price change
// and published with run events.
type Operation string

const (
	OperationMarkup       Operation = "markup"
	OperationDiscount     Operation = "discount"
	OperationBundleMarkup Operation = "bundle_markup"
)

// Product is the slice of a catalog product the engines read.
type Product struct {
	ID            uint
	OriginalPrice decimal.Decimal
	CurrentPrice  decimal.Decimal
}

// PriceUpdate sets a product's current price.
type PriceUpdate struct {
	ProductID     uint
	PreviousPrice decimal.Decimal
	NewPrice      decimal.Decimal
}

// PriceBatch is the set of updates produced for one range. Implementations
// must apply a batch atomically.
type PriceBatch struct {
	RunID      uuid.UUID
	Operation  Operation
	Percentage decimal.Decimal
	Updates    []PriceUpdate
}

// Catalog is the product store used by the range engines.
type Catalog interface {
	ListOriginalPrices(ctx context.Context) ([]decimal.Decimal, error)
	ListProductsInPriceRange(ctx context.Context, minValue, maxValue decimal.Decimal) ([]Product, error)
	UpdateProductPrices(ctx context.Context, batch PriceBatch) error
}

// PriceResolver looks up original prices by product id. Unknown ids are
// absent from the returned map.
type PriceResolver interface {
	GetOriginalPrices(ctx context.Context, ids []uint) (map[uint]decimal.Decimal, error)
}

// Bundle is a stored bundle and its ordered member list. A product may
// appear more than once.
type Bundle struct {
	ID               uint
	MemberProductIDs []uint
}

// BundlePricing holds the priced fields written back to a bundle.
type BundlePricing struct {
	BundleID           uint
	OriginalPrice      decimal.Decimal
	CurrentPrice       decimal.Decimal
	Savings            decimal.Decimal
	DiscountPercentage decimal.Decimal
}

type BundleStore interface {
	ListBundles(ctx context.Context) ([]Bundle, error)
	UpdateBundlePricing(ctx context.Context, p BundlePricing) error
}

// RunEvent describes a completed pricing run.
type RunEvent struct {
	RunID            uuid.UUID        `json:"runId"`
	Operation        Operation        `json:"operation"`
	UpdatedCount     int              `json:"updatedCount"`
	Ranges           int              `json:"ranges,omitempty"`
	Percentage       *decimal.Decimal `json:"percentage,omitempty"`
	SkippedBundleIDs []uint           `json:"skippedBundleIds,omitempty"`
	CompletedAt      time.Time        `json:"completedAt"`
}

// Notifier is told about every run that completes without error.
type Notifier interface {
	PricingApplied(ctx context.Context, ev RunEvent) error
}

type nopNotifier struct{}

func (nopNotifier) PricingApplied(context.Context, RunEvent) error { return nil }

// Option configures the engines.
type Option func(*options)

type options struct {
	places   int32
	notifier Notifier
	newRunID func() uuid.UUID
	now      func() time.Time
}

func defaultOptions() options {
	return options{
		places:   DefaultRoundingPlaces,
		notifier: nopNotifier{},
		newRunID: uuid.New,
		now:      time.Now,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithRoundingPlaces sets the number of decimal places prices round to.
func WithRoundingPlaces(places int32) Option {
	return func(o *options) {
		if places >= 0 {
			o.places = places
		}
	}
}

// WithNotifier sets the receiver of run events.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(fn func() uuid.UUID) Option {
	return func(o *options) {
		if fn != nil {
			o.newRunID = fn
		}
	}
}

func (o options) notify(ctx context.Context, ev RunEvent) {
	ev.CompletedAt = o.now().UTC()
	if err := o.notifier.PricingApplied(ctx, ev); err != nil {
		logger.Warn().Err(err).
			Str("run_id", ev.RunID.String()).
			Str("operation", string(ev.Operation)).
			Msg("failed to publish pricing run event")
	}
}
