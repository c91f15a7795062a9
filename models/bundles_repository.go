package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshcart/pricing-admin/pricing"
	"gorm.io/gorm"
)

// ErrBundleNotFound is returned when a bundle is not found.
var ErrBundleNotFound = errors.New("bundle not found")

type BundlesRepository struct {
	db *gorm.DB
}

var _ pricing.BundleStore = (*BundlesRepository)(nil)

func NewBundlesRepository(db *gorm.DB) *BundlesRepository {
	return &BundlesRepository{db: db}
}

func (r *BundlesRepository) ListBundles(ctx context.Context) ([]pricing.Bundle, error) {
	var rows []Bundle
	if err := r.db.WithContext(ctx).Select("id", "product_ids").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select bundles: %w", err)
	}
	return toPricingBundles(rows), nil
}

func (r *BundlesRepository) UpdateBundlePricing(ctx context.Context, p pricing.BundlePricing) error {
	res := r.db.WithContext(ctx).Model(&Bundle{}).Where("id = ?", p.BundleID).Updates(map[string]interface{}{
		"original_price":      p.OriginalPrice,
		"current_price":       p.CurrentPrice,
		"savings":             p.Savings,
		"discount_percentage": p.DiscountPercentage,
	})
	if res.Error != nil {
		return fmt.Errorf("update bundle %d: %w", p.BundleID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update bundle %d: %w", p.BundleID, ErrBundleNotFound)
	}
	return nil
}

func toPricingBundles(rows []Bundle) []pricing.Bundle {
	out := make([]pricing.Bundle, len(rows))
	for i := range rows {
		out[i] = pricing.Bundle{ID: rows[i].ID, MemberProductIDs: rows[i].MemberIDs()}
	}
	return out
}
