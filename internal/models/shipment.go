package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shipment is an outbound, irreversible debit of finished goods to a counterparty.
type Shipment struct {
	ID             uint `gorm:"primaryKey"`
	ProductID      uint `gorm:"index;not null"`
	Product        Product
	BatchID        uint `gorm:"index;not null"`
	Batch          Batch
	Quantity       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ShipmentDate   time.Time       `gorm:"type:date;index;not null"`
	CounterpartyID uint            `gorm:"index;not null"`
	Counterparty   Counterparty
	CreatedBy      uint
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items []ShipmentItem `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
}

// ShipmentItem is a line of a multi-item shipment. Each item debits finished
// goods on its own.
type ShipmentItem struct {
	ID         uint `gorm:"primaryKey"`
	ShipmentID uint `gorm:"index;not null"`
	ProductID  uint `gorm:"index;not null"`
	Product    Product
	BatchID    uint `gorm:"index;not null"`
	Batch      Batch
	Quantity   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
