package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshcart/pricing-admin/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

// priceChangeBatchSize bounds each INSERT of price history rows.
const priceChangeBatchSize = 200

type ProductFilters struct {
	CategoryCode     string
	MinOriginalPrice *decimal.Decimal
	MaxOriginalPrice *decimal.Decimal
}

var (
	_ pricing.Catalog       = (*ProductsRepository)(nil)
	_ pricing.PriceResolver = (*ProductsRepository)(nil)
)

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

func (r *ProductsRepository) GetFilteredProducts(ctx context.Context, offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.WithContext(ctx).Model(&Product{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Preload("Category")

	// Filter
	if filters.CategoryCode != "" {
		query = query.Where("categories.code = ?", filters.CategoryCode)
	}
	if filters.MinOriginalPrice != nil {
		query = query.Where("products.original_price >= ?", *filters.MinOriginalPrice)
	}
	if filters.MaxOriginalPrice != nil {
		query = query.Where("products.original_price <= ?", *filters.MaxOriginalPrice)
	}

	// Count total after filtering
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("products.original_price, products.id").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *ProductsRepository) GetByCode(ctx context.Context, code string) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("code = ?", code).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// ListOriginalPrices reads the original price column of every product.
func (r *ProductsRepository) ListOriginalPrices(ctx context.Context) ([]decimal.Decimal, error) {
	var prices []decimal.Decimal
	if err := r.db.WithContext(ctx).Model(&Product{}).Pluck("original_price", &prices).Error; err != nil {
		return nil, fmt.Errorf("pluck original prices: %w", err)
	}
	return prices, nil
}

func (r *ProductsRepository) ListProductsInPriceRange(ctx context.Context, minValue, maxValue decimal.Decimal) ([]pricing.Product, error) {
	var rows []Product
	err := r.db.WithContext(ctx).
		Select("id", "original_price", "current_price").
		Where("original_price BETWEEN ? AND ?", minValue, maxValue).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("select products in range %s-%s: %w", minValue, maxValue, err)
	}

	out := make([]pricing.Product, len(rows))
	for i, p := range rows {
		out[i] = pricing.Product{ID: p.ID, OriginalPrice: p.OriginalPrice, CurrentPrice: p.CurrentPrice}
	}
	return out, nil
}

// UpdateProductPrices writes a batch of current prices and its history rows
// in one transaction.
func (r *ProductsRepository) UpdateProductPrices(ctx context.Context, batch pricing.PriceBatch) error {
	if len(batch.Updates) == 0 {
		return nil
	}

	changes := make([]PriceChange, len(batch.Updates))
	for i, u := range batch.Updates {
		changes[i] = PriceChange{
			RunID:         batch.RunID,
			Operation:     string(batch.Operation),
			ProductID:     u.ProductID,
			Percentage:    batch.Percentage,
			PreviousPrice: u.PreviousPrice,
			NewPrice:      u.NewPrice,
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range batch.Updates {
			res := tx.Model(&Product{}).Where("id = ?", u.ProductID).Update("current_price", u.NewPrice)
			if res.Error != nil {
				return fmt.Errorf("update product %d: %w", u.ProductID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("update product %d: %w", u.ProductID, ErrProductNotFound)
			}
		}
		if err := tx.CreateInBatches(changes, priceChangeBatchSize).Error; err != nil {
			return fmt.Errorf("record price changes: %w", err)
		}
		return nil
	})
}

func (r *ProductsRepository) GetOriginalPrices(ctx context.Context, ids []uint) (map[uint]decimal.Decimal, error) {
	out := make(map[uint]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []Product
	if err := r.db.WithContext(ctx).Select("id", "original_price").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select original prices: %w", err)
	}
	for _, p := range rows {
		out[p.ID] = p.OriginalPrice
	}
	return out, nil
}

func (r *ProductsRepository) ListPriceChangesByRun(ctx context.Context, runID uuid.UUID) ([]PriceChange, error) {
	var changes []PriceChange
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}

// ListPriceChangesByProduct returns a product's most recent price changes first.
func (r *ProductsRepository) ListPriceChangesByProduct(ctx context.Context, productID uint, limit int) ([]PriceChange, error) {
	var changes []PriceChange
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}
