package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MaterialUnit string

const (
	UnitGram  MaterialUnit = "gram"
	UnitPiece MaterialUnit = "piece"
	UnitLiter MaterialUnit = "liter"
)

func (u MaterialUnit) Valid() bool {
	switch u {
	case UnitGram, UnitPiece, UnitLiter:
		return true
	}
	return false
}

type Material struct {
	ID        uint         `gorm:"primaryKey"`
	Name      string       `gorm:"size:100;not null"`
	Unit      MaterialUnit `gorm:"size:10;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MaterialStock holds the on-hand quantity of a material. One row per material.
type MaterialStock struct {
	ID         uint `gorm:"primaryKey"`
	MaterialID uint `gorm:"not null;uniqueIndex"`
	Material   Material
	Quantity   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
