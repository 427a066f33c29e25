package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"size:100;not null;uniqueIndex:idx_products_name_line"`
	GTIN      string          `gorm:"column:gtin;size:50;not null"`
	Volume    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineID    uint            `gorm:"not null;index;uniqueIndex:idx_products_name_line"`
	Line      Line
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductMaterial is one bill-of-materials line: how much of a material one
// unit of the product consumes.
type ProductMaterial struct {
	ID         uint `gorm:"primaryKey"`
	ProductID  uint `gorm:"not null;uniqueIndex:idx_product_materials_pair"`
	Product    Product
	MaterialID uint `gorm:"not null;index;uniqueIndex:idx_product_materials_pair"`
	Material   Material
	Quantity   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
