package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the grocery catalog.
// OriginalPrice is the supplier cost and is never changed by pricing runs;
// CurrentPrice is the selling price shown to customers.
type Product struct {
	ID            uint            `gorm:"primaryKey"`
	Code          string          `gorm:"uniqueIndex;not null"`
	Name          string          `gorm:"not null"`
	OriginalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null;index"`
	CurrentPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CategoryID    uint            `gorm:"not null"`
	Category      Category        `gorm:"foreignKey:CategoryID"`
	UpdatedAt     time.Time
}

func (p *Product) TableName() string {
	return "products"
}
