package models

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CategorySummary is the product count and original-price span of one aisle.
// The price bounds are null for an aisle with no products.
type CategorySummary struct {
	Code             string
	Name             string
	ProductCount     int64
	MinOriginalPrice decimal.NullDecimal
	MaxOriginalPrice decimal.NullDecimal
}

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

func (r *CategoriesRepository) ListCategorySummaries(ctx context.Context) ([]CategorySummary, error) {
	var rows []CategorySummary
	err := r.db.WithContext(ctx).
		Model(&Category{}).
		Select("categories.code, categories.name, " +
			"COUNT(products.id) AS product_count, " +
			"MIN(products.original_price) AS min_original_price, " +
			"MAX(products.original_price) AS max_original_price").
		Joins("LEFT JOIN products ON products.category_id = categories.id").
		Group("categories.id, categories.code, categories.name").
		Order("categories.code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
