package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinishedGoodsStock is keyed by (product, batch number, production date).
// It refers to its batch by value, not by foreign key.
type FinishedGoodsStock struct {
	ID             uint `gorm:"primaryKey"`
	ProductID      uint `gorm:"not null;uniqueIndex:idx_finished_goods_identity"`
	Product        Product
	BatchNumber    string          `gorm:"size:50;not null;uniqueIndex:idx_finished_goods_identity"`
	ProductionDate time.Time       `gorm:"type:date;not null;uniqueIndex:idx_finished_goods_identity"`
	Quantity       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	IsUsed         bool            `gorm:"not null;default:false;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
