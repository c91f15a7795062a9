package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Bundle is a group of products sold together. ProductIDs keeps the member
// order and may list the same product more than once.
type Bundle struct {
	ID                 uint            `gorm:"primaryKey"`
	Name               string          `gorm:"not null"`
	ProductIDs         pq.Int64Array   `gorm:"type:bigint[];not null"`
	OriginalPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	CurrentPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Savings            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	UpdatedAt          time.Time
}

func (b *Bundle) TableName() string {
	return "bundles"
}

// MemberIDs converts the stored member list. Ids that cannot name a product
// are kept as 0 so bundle pricing reports them as missing members.
func (b *Bundle) MemberIDs() []uint {
	ids := make([]uint, 0, len(b.ProductIDs))
	for _, id := range b.ProductIDs {
		if id <= 0 {
			ids = append(ids, 0)
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}
