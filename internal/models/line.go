package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line is a production line. Products attached to it must share its volume.
type Line struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"size:100;not null;uniqueIndex"`
	Volume    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Number    int             `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
