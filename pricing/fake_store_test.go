package pricing

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// --- In-memory catalog ---

type fakeCatalog struct {
	products map[uint]*Product
	batches  []PriceBatch

	listErr   error
	updateErr error
	// failUpdateAt limits updateErr to the n-th UpdateProductPrices call (1-based).
	failUpdateAt int
	updateCalls  int
	listCalls    int
}

func newFakeCatalog(products ...Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[uint]*Product)}
	for _, p := range products {
		p := p
		c.products[p.ID] = &p
	}
	return c
}

func (c *fakeCatalog) ids() []uint {
	ids := make([]uint, 0, len(c.products))
	for id := range c.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *fakeCatalog) ListOriginalPrices(ctx context.Context) ([]decimal.Decimal, error) {
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	var prices []decimal.Decimal
	for _, id := range c.ids() {
		prices = append(prices, c.products[id].OriginalPrice)
	}
	return prices, nil
}

func (c *fakeCatalog) ListProductsInPriceRange(ctx context.Context, minValue, maxValue decimal.Decimal) ([]Product, error) {
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	var out []Product
	for _, id := range c.ids() {
		p := c.products[id]
		if p.OriginalPrice.GreaterThanOrEqual(minValue) && p.OriginalPrice.LessThanOrEqual(maxValue) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (c *fakeCatalog) UpdateProductPrices(ctx context.Context, batch PriceBatch) error {
	c.updateCalls++
	if c.updateErr != nil && (c.failUpdateAt == 0 || c.updateCalls == c.failUpdateAt) {
		return c.updateErr
	}
	for _, u := range batch.Updates {
		c.products[u.ProductID].CurrentPrice = u.NewPrice
	}
	c.batches = append(c.batches, batch)
	return nil
}

func (c *fakeCatalog) GetOriginalPrices(ctx context.Context, ids []uint) (map[uint]decimal.Decimal, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make(map[uint]decimal.Decimal)
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p.OriginalPrice
		}
	}
	return out, nil
}

func (c *fakeCatalog) current(id uint) decimal.Decimal {
	return c.products[id].CurrentPrice
}

// --- In-memory bundle store ---

type fakeBundleStore struct {
	bundles []Bundle
	pricing map[uint]BundlePricing

	listErr   error
	failOnID  uint
	updateErr error
}

func newFakeBundleStore(bundles ...Bundle) *fakeBundleStore {
	return &fakeBundleStore{bundles: bundles, pricing: make(map[uint]BundlePricing)}
}

func (s *fakeBundleStore) ListBundles(ctx context.Context) ([]Bundle, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.bundles, nil
}

func (s *fakeBundleStore) UpdateBundlePricing(ctx context.Context, p BundlePricing) error {
	if s.failOnID != 0 && p.BundleID == s.failOnID {
		return s.updateErr
	}
	s.pricing[p.BundleID] = p
	return nil
}

// --- Notifier ---

type recordingNotifier struct {
	events []RunEvent
	err    error
}

func (n *recordingNotifier) PricingApplied(ctx context.Context, ev RunEvent) error {
	n.events = append(n.events, ev)
	return n.err
}

// --- Helpers ---

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func product(id uint, original, current string) Product {
	return Product{ID: id, OriginalPrice: d(original), CurrentPrice: d(current)}
}

func adjustment(minValue, maxValue, percentage string) RangeAdjustment {
	return RangeAdjustment{
		Range:      PriceRange{MinValue: d(minValue), MaxValue: d(maxValue)},
		Percentage: d(percentage),
	}
}

func fixedRunID() Option {
	id := uuid.MustParse("5b0f3c52-9a7e-4d7a-8f5e-2f1f6c3d9a10")
	return WithRunIDs(func() uuid.UUID { return id })
}

func assertPrice(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want price %s, got %s %v", want, got, msgAndArgs)
}
