package audit

import (
	"encoding/json"
	"fmt"

	"factory-backend/internal/models"

	"gorm.io/gorm"
)

// Actor identifies who performed a mutation. The zero value is the system.
type Actor struct {
	UserID   uint
	UserName string
}

var System = Actor{UserName: "system"}

type LogOptions struct {
	Actor       Actor
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog appends a journal row using tx, so the entry commits or rolls back
// with the change it describes.
func WriteLog(tx *gorm.DB, opts LogOptions) error {
	// jsonb needs the literal null, not an empty string
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		b, err := json.Marshal(opts.Before)
		if err != nil {
			return fmt.Errorf("marshal audit before: %w", err)
		}
		beforeStr = string(b)
	}
	if opts.After != nil {
		b, err := json.Marshal(opts.After)
		if err != nil {
			return fmt.Errorf("marshal audit after: %w", err)
		}
		afterStr = string(b)
	}

	entry := models.AuditLog{
		UserID:      opts.Actor.UserID,
		UserName:    opts.Actor.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
