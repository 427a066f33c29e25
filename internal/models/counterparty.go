package models

import "time"

type Counterparty struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"size:100;not null"`
	Address       string `gorm:"size:255;not null"`
	ContactNumber string `gorm:"size:15;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
