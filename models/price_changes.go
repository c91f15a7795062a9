package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceChange records one current-price write made by a pricing run.
// Rows are append-only.
type PriceChange struct {
	ID            uint            `gorm:"primaryKey"`
	RunID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Operation     string          `gorm:"not null"`
	ProductID     uint            `gorm:"not null;index"`
	Percentage    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PreviousPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	NewPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt     time.Time
}

func (c *PriceChange) TableName() string {
	return "price_changes"
}
