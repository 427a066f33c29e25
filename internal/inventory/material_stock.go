package inventory

import (
	"context"
	"errors"
	"fmt"

	"factory-backend/internal/audit"
	"factory-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entityMaterialStock = "material_stock"

func stockSnapshot(s *models.MaterialStock) map[string]any {
	return map[string]any{"material_id": s.MaterialID, "quantity": s.Quantity}
}

func (s *Service) GetStock(ctx context.Context, materialID uint) (*models.MaterialStock, error) {
	var stock models.MaterialStock
	err := s.db.WithContext(ctx).Preload("Material").Where("material_id = ?", materialID).Take(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("stock for material %d", materialID)
	}
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (s *Service) ListStocks(ctx context.Context) ([]models.MaterialStock, error) {
	var stocks []models.MaterialStock
	if err := s.db.WithContext(ctx).Preload("Material").Order("material_id").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// AddOrUpdateStock sets the on-hand quantity of a material, creating its stock
// row on first use.
func (s *Service) AddOrUpdateStock(ctx context.Context, actor audit.Actor, materialID uint, quantity decimal.Decimal) (*models.MaterialStock, error) {
	if err := checkAmount("quantity", quantity, true); err != nil {
		return nil, err
	}

	var out *models.MaterialStock
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		stock, err := setStock(tx, actor, materialID, quantity)
		out = stock
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func setStock(tx *gorm.DB, actor audit.Actor, materialID uint, quantity decimal.Decimal) (*models.MaterialStock, error) {
	if _, err := first[models.Material](tx, "material", materialID); err != nil {
		return nil, err
	}
	stock, err := lockOrCreateStock(tx, materialID)
	if err != nil {
		return nil, err
	}
	before := stockSnapshot(stock)
	if err := tx.Model(stock).Update("quantity", quantity).Error; err != nil {
		return nil, fmt.Errorf("set stock of material %d: %w", materialID, err)
	}
	stock.Quantity = quantity

	err = audit.WriteLog(tx, audit.LogOptions{
		Actor:       actor,
		EntityType:  entityMaterialStock,
		EntityID:    stock.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("stock of material %d set to %s", materialID, quantity.StringFixed(2)),
		Before:      before,
		After:       stockSnapshot(stock),
	})
	return stock, err
}

// CreditStock receives material into stock.
func (s *Service) CreditStock(ctx context.Context, actor audit.Actor, materialID uint, amount decimal.Decimal) (*models.MaterialStock, error) {
	if err := checkAmount("amount", amount, false); err != nil {
		return nil, err
	}

	var out *models.MaterialStock
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := first[models.Material](tx, "material", materialID); err != nil {
			return err
		}
		stock, err := lockOrCreateStock(tx, materialID)
		if err != nil {
			return err
		}
		out = stock
		return creditStock(tx, actor, stock, amount, "material received")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DebitStock writes material off stock outside of production.
func (s *Service) DebitStock(ctx context.Context, actor audit.Actor, materialID uint, amount decimal.Decimal) (*models.MaterialStock, error) {
	if err := checkAmount("amount", amount, false); err != nil {
		return nil, err
	}

	var out *models.MaterialStock
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		material, err := first[models.Material](tx, "material", materialID)
		if err != nil {
			return err
		}
		stock, err := lockStock(tx, materialID)
		if err != nil {
			return err
		}
		out = stock
		return debitStock(tx, actor, stock, material.Name, amount, "material written off")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lockStock selects the stock row of a material FOR UPDATE.
func lockStock(tx *gorm.DB, materialID uint) (*models.MaterialStock, error) {
	var stock models.MaterialStock
	err := forUpdate(tx).Where("material_id = ?", materialID).Take(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("stock for material %d", materialID)
	}
	if err != nil {
		return nil, fmt.Errorf("lock stock of material %d: %w", materialID, err)
	}
	return &stock, nil
}

func lockOrCreateStock(tx *gorm.DB, materialID uint) (*models.MaterialStock, error) {
	row := models.MaterialStock{MaterialID: materialID, Quantity: decimal.Zero}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "material_id"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create stock of material %d: %w", materialID, err)
	}
	return lockStock(tx, materialID)
}

// debitStock subtracts amount from a locked stock row.
func debitStock(tx *gorm.DB, actor audit.Actor, stock *models.MaterialStock, name string, amount decimal.Decimal, why string) error {
	if amount.GreaterThan(stock.Quantity) {
		return &InsufficientStockError{Resource: name, Available: stock.Quantity, Requested: amount}
	}
	before := stockSnapshot(stock)
	next := stock.Quantity.Sub(amount)
	if err := tx.Model(stock).Update("quantity", next).Error; err != nil {
		return fmt.Errorf("debit stock of material %d: %w", stock.MaterialID, err)
	}
	stock.Quantity = next

	return audit.WriteLog(tx, audit.LogOptions{
		Actor:       actor,
		EntityType:  entityMaterialStock,
		EntityID:    stock.ID,
		Action:      models.AuditActionDebit,
		Description: fmt.Sprintf("%s: -%s %s", why, amount.StringFixed(2), name),
		Before:      before,
		After:       stockSnapshot(stock),
	})
}

func creditStock(tx *gorm.DB, actor audit.Actor, stock *models.MaterialStock, amount decimal.Decimal, why string) error {
	before := stockSnapshot(stock)
	next := stock.Quantity.Add(amount)
	if err := tx.Model(stock).Update("quantity", next).Error; err != nil {
		return fmt.Errorf("credit stock of material %d: %w", stock.MaterialID, err)
	}
	stock.Quantity = next

	return audit.WriteLog(tx, audit.LogOptions{
		Actor:       actor,
		EntityType:  entityMaterialStock,
		EntityID:    stock.ID,
		Action:      models.AuditActionCredit,
		Description: fmt.Sprintf("%s: +%s of material %d", why, amount.StringFixed(2), stock.MaterialID),
		Before:      before,
		After:       stockSnapshot(stock),
	})
}
