package models

import "gorm.io/gorm"

// AutoMigrate creates or updates the tables used by the pricing service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Category{}, &Product{}, &Bundle{}, &PriceChange{})
}
