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
	"gorm.io/gorm/clause"
)

const entityFinishedGoods = "finished_goods_stock"

type FinishedGoodsFilter struct {
	ProductID uint
	OpenOnly  bool // quantity > 0 and not used
}

func goodsSnapshot(g *models.FinishedGoodsStock) map[string]any {
	return map[string]any{
		"product_id":      g.ProductID,
		"batch_number":    g.BatchNumber,
		"production_date": g.ProductionDate.Format(sequenceKeyLayout),
		"quantity":        g.Quantity,
		"is_used":         g.IsUsed,
	}
}

// ApplyFinishedGoodsDelta adds delta to row in memory. A row that reaches zero
// is closed and cannot be credited again.
func ApplyFinishedGoodsDelta(row *models.FinishedGoodsStock, delta decimal.Decimal) error {
	if delta.IsNegative() && delta.Neg().GreaterThan(row.Quantity) {
		return &InsufficientStockError{
			Resource:  "finished goods batch " + row.BatchNumber,
			Available: row.Quantity,
			Requested: delta.Neg(),
		}
	}
	if delta.IsPositive() && row.IsUsed {
		return fmt.Errorf("%w: finished goods batch %s", ErrAlreadyUsed, row.BatchNumber)
	}

	row.Quantity = row.Quantity.Add(delta)
	if !row.Quantity.IsPositive() {
		row.Quantity = decimal.Zero
		row.IsUsed = true
	}
	return nil
}

func (s *Service) ListFinishedGoods(ctx context.Context, f FinishedGoodsFilter) ([]models.FinishedGoodsStock, error) {
	q := s.db.WithContext(ctx).Preload("Product")
	if f.ProductID != 0 {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.OpenOnly {
		q = q.Where("is_used = ? AND quantity > 0", false)
	}

	var rows []models.FinishedGoodsStock
	if err := q.Order("production_date, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func goodsKey(tx *gorm.DB, productID uint, batchNumber string, productionDate time.Time) *gorm.DB {
	return tx.Where("product_id = ? AND batch_number = ? AND production_date = ?",
		productID, batchNumber, dateOnly(productionDate))
}

// getOrCreateFinishedGoods returns the locked row for the triple, inserting an
// empty one first when needed.
func getOrCreateFinishedGoods(tx *gorm.DB, productID uint, batchNumber string, productionDate time.Time) (*models.FinishedGoodsStock, error) {
	row := models.FinishedGoodsStock{
		ProductID:      productID,
		BatchNumber:    batchNumber,
		ProductionDate: dateOnly(productionDate),
		Quantity:       decimal.Zero,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "batch_number"}, {Name: "production_date"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create finished goods %s: %w", batchNumber, err)
	}

	var locked models.FinishedGoodsStock
	if err := goodsKey(forUpdate(tx), productID, batchNumber, productionDate).Take(&locked).Error; err != nil {
		return nil, fmt.Errorf("lock finished goods %s: %w", batchNumber, err)
	}
	return &locked, nil
}

// lockOpenFinishedGoods selects the open row for the triple FOR UPDATE.
func lockOpenFinishedGoods(tx *gorm.DB, productID uint, batchNumber string, productionDate time.Time) (*models.FinishedGoodsStock, error) {
	var row models.FinishedGoodsStock
	err := goodsKey(forUpdate(tx), productID, batchNumber, productionDate).
		Where("is_used = ?", false).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("open finished goods for product %d batch %s", productID, batchNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("lock finished goods %s: %w", batchNumber, err)
	}
	return &row, nil
}

func updateFinishedGoods(tx *gorm.DB, actor audit.Actor, row *models.FinishedGoodsStock, delta decimal.Decimal, action models.AuditAction, why string) error {
	before := goodsSnapshot(row)
	if err := ApplyFinishedGoodsDelta(row, delta); err != nil {
		return err
	}
	if err := tx.Model(row).Updates(map[string]any{
		"quantity": row.Quantity,
		"is_used":  row.IsUsed,
	}).Error; err != nil {
		return fmt.Errorf("update finished goods %s: %w", row.BatchNumber, err)
	}

	return audit.WriteLog(tx, audit.LogOptions{
		Actor:       actor,
		EntityType:  entityFinishedGoods,
		EntityID:    row.ID,
		Action:      action,
		Description: fmt.Sprintf("%s: %s of batch %s", why, delta.StringFixed(2), row.BatchNumber),
		Before:      before,
		After:       goodsSnapshot(row),
	})
}
