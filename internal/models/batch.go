package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch is a dated, numbered production run. BatchNumber is assigned once at
// creation and never changes.
type Batch struct {
	ID             uint `gorm:"primaryKey"`
	ProductID      uint `gorm:"index;not null"`
	Product        Product
	LineID         uint `gorm:"index;not null"`
	Line           Line
	BatchNumber    string          `gorm:"size:50;not null;uniqueIndex"`
	ProductionDate time.Time       `gorm:"type:date;index;not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	IsUsed         bool            `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BatchSequence is the per-date counter batch numbers are drawn from.
type BatchSequence struct {
	DateKey   string `gorm:"primaryKey;size:10"` // YYYY-MM-DD
	LastValue int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
