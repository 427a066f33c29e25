package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"factory-backend/internal/audit"
	"factory-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const entityBatch = "batch"

type BatchInput struct {
	ProductID      uint
	LineID         uint
	ProductionDate time.Time
}

// BatchFilter narrows ListBatches. Zero fields are ignored; dates are inclusive.
type BatchFilter struct {
	From      time.Time
	To        time.Time
	ProductID uint
}

func batchSnapshot(b *models.Batch) map[string]any {
	return map[string]any{
		"batch_number":    b.BatchNumber,
		"product_id":      b.ProductID,
		"production_date": b.ProductionDate.Format(sequenceKeyLayout),
		"quantity":        b.Quantity,
		"is_used":         b.IsUsed,
	}
}

// CreateBatch opens a new batch with quantity 0 and the next batch number of
// its production date.
func (s *Service) CreateBatch(ctx context.Context, actor audit.Actor, in BatchInput) (*models.Batch, error) {
	if in.ProductionDate.IsZero() {
		return nil, validationf("production date is required")
	}
	date := dateOnly(in.ProductionDate)

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, "batch-seq:"+sequenceKey(date))
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var batch models.Batch
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		product, err := first[models.Product](tx, "product", in.ProductID)
		if err != nil {
			return err
		}
		line, err := first[models.Line](tx, "line", in.LineID)
		if err != nil {
			return err
		}
		if product.LineID != line.ID {
			return validationf("product %d is not made on line %d", product.ID, line.ID)
		}

		number, err := nextBatchNumber(tx, date)
		if err != nil {
			return err
		}

		batch = models.Batch{
			ProductID:      product.ID,
			LineID:         line.ID,
			BatchNumber:    number,
			ProductionDate: date,
			Quantity:       decimal.Zero,
		}
		if err := tx.Create(&batch).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, number)
			}
			return fmt.Errorf("create batch: %w", err)
		}

		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  entityBatch,
			EntityID:    batch.ID,
			Action:      models.AuditActionCreate,
			Description: "batch " + number + " opened",
			After:       batchSnapshot(&batch),
		})
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (s *Service) GetBatch(ctx context.Context, id uint) (*models.Batch, error) {
	return first[models.Batch](s.db.WithContext(ctx).Preload("Product").Preload("Line"), "batch", id)
}

func (s *Service) ListBatches(ctx context.Context, f BatchFilter) ([]models.Batch, error) {
	q := s.db.WithContext(ctx).Model(&models.Batch{}).Preload("Product").Preload("Line")
	if !f.From.IsZero() {
		q = q.Where("production_date >= ?", dateOnly(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("production_date <= ?", dateOnly(f.To))
	}
	if f.ProductID != 0 {
		q = q.Where("product_id = ?", f.ProductID)
	}

	var batches []models.Batch
	if err := q.Order("production_date DESC, id DESC").Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// checkRelease reports why quantity cannot be released against b. A batch is
// released exactly once: the release sets its quantity, and releasing zero
// closes it.
func checkRelease(b *models.Batch, quantity decimal.Decimal) error {
	if b.IsUsed {
		return fmt.Errorf("%w: batch %s", ErrAlreadyUsed, b.BatchNumber)
	}
	if err := checkAmount("quantity", quantity, true); err != nil {
		return err
	}
	if !b.Quantity.IsZero() {
		return fmt.Errorf("%w: batch %s was already released", ErrInvalidOperation, b.BatchNumber)
	}
	return nil
}

func CanRelease(b *models.Batch, quantity decimal.Decimal) bool {
	return checkRelease(b, quantity) == nil
}

// releaseBatch records the released quantity on a locked batch.
func releaseBatch(tx *gorm.DB, actor audit.Actor, b *models.Batch, quantity decimal.Decimal) error {
	if err := checkRelease(b, quantity); err != nil {
		return err
	}
	before := batchSnapshot(b)

	b.Quantity = quantity
	b.IsUsed = quantity.IsZero()
	if err := tx.Model(b).Updates(map[string]any{
		"quantity": b.Quantity,
		"is_used":  b.IsUsed,
	}).Error; err != nil {
		return fmt.Errorf("release batch %s: %w", b.BatchNumber, err)
	}

	return audit.WriteLog(tx, audit.LogOptions{
		Actor:       actor,
		EntityType:  entityBatch,
		EntityID:    b.ID,
		Action:      models.AuditActionRelease,
		Description: fmt.Sprintf("batch %s released: %s", b.BatchNumber, quantity.StringFixed(2)),
		Before:      before,
		After:       batchSnapshot(b),
	})
}
