package models

import "time"

type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionCredit  AuditAction = "credit"
	AuditActionDebit   AuditAction = "debit"
	AuditActionRelease AuditAction = "release"
	AuditActionShip    AuditAction = "ship"
	AuditActionDelete  AuditAction = "delete"
)

// AuditLog is the journal of ledger mutations. Rows are written in the same
// transaction as the change they describe.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID   uint   `gorm:"index" json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"`

	// material_stock, batch, finished_goods_stock, shipment, shipment_item, ...
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`
}
