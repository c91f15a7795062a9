package models

// Category is a grocery aisle (produce, dairy, bakery...). Products belong
// to exactly one category; the admin product listing filters by its code.
type Category struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"uniqueIndex;not null"`
	Name string `gorm:"not null"`
}

func (c *Category) TableName() string {
	return "categories"
}
