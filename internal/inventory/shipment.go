package inventory

import (
	"context"
	"fmt"
	"time"

	"factory-backend/internal/audit"
	"factory-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	entityShipment     = "shipment"
	entityShipmentItem = "shipment_item"
)

type ShipmentInput struct {
	ProductID      uint
	BatchID        uint
	CounterpartyID uint
	Quantity       decimal.Decimal
	ShipmentDate   time.Time
}

type ShipmentItemInput struct {
	ProductID uint
	BatchID   uint
	Quantity  decimal.Decimal
}

// ShipmentFilter narrows ListShipments. Dates are inclusive.
type ShipmentFilter struct {
	From           time.Time
	To             time.Time
	CounterpartyID uint
}

// shipGoods debits the open finished goods of (product, batch) by quantity.
func shipGoods(tx *gorm.DB, actor audit.Actor, productID, batchID uint, quantity decimal.Decimal, why string) (*models.Batch, error) {
	if _, err := first[models.Product](tx, "product", productID); err != nil {
		return nil, err
	}
	batch, err := first[models.Batch](tx, "batch", batchID)
	if err != nil {
		return nil, err
	}
	if batch.ProductID != productID {
		return nil, validationf("batch %s does not belong to product %d", batch.BatchNumber, productID)
	}

	goods, err := lockOpenFinishedGoods(tx, productID, batch.BatchNumber, batch.ProductionDate)
	if err != nil {
		return nil, err
	}
	if err := updateFinishedGoods(tx, actor, goods, quantity.Neg(), models.AuditActionShip, why); err != nil {
		return nil, err
	}
	return batch, nil
}

// CreateShipment ships finished goods to a counterparty. The shipment row is
// only written after the debit succeeded.
func (s *Service) CreateShipment(ctx context.Context, actor audit.Actor, in ShipmentInput) (*models.Shipment, error) {
	if err := checkAmount("quantity", in.Quantity, false); err != nil {
		return nil, err
	}
	if in.ShipmentDate.IsZero() {
		return nil, validationf("shipment date is required")
	}

	var shipment models.Shipment
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		counterparty, err := first[models.Counterparty](tx, "counterparty", in.CounterpartyID)
		if err != nil {
			return err
		}
		if _, err := shipGoods(tx, actor, in.ProductID, in.BatchID, in.Quantity, "shipment to "+counterparty.Name); err != nil {
			return err
		}

		shipment = models.Shipment{
			ProductID:      in.ProductID,
			BatchID:        in.BatchID,
			Quantity:       in.Quantity,
			ShipmentDate:   dateOnly(in.ShipmentDate),
			CounterpartyID: counterparty.ID,
			CreatedBy:      actor.UserID,
		}
		if err := tx.Create(&shipment).Error; err != nil {
			return fmt.Errorf("create shipment: %w", err)
		}

		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  entityShipment,
			EntityID:    shipment.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("shipment of %s to %s", in.Quantity.StringFixed(2), counterparty.Name),
			After: map[string]any{
				"product_id":      shipment.ProductID,
				"batch_id":        shipment.BatchID,
				"counterparty_id": shipment.CounterpartyID,
				"quantity":        shipment.Quantity,
				"shipment_date":   shipment.ShipmentDate.Format(sequenceKeyLayout),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// AddShipmentItem adds a line to an existing shipment. Each item debits
// finished goods on its own, independent of the shipment's own line.
func (s *Service) AddShipmentItem(ctx context.Context, actor audit.Actor, shipmentID uint, in ShipmentItemInput) (*models.ShipmentItem, error) {
	if err := checkAmount("quantity", in.Quantity, false); err != nil {
		return nil, err
	}

	var item models.ShipmentItem
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		shipment, err := first[models.Shipment](tx, "shipment", shipmentID)
		if err != nil {
			return err
		}
		why := fmt.Sprintf("item of shipment %d", shipment.ID)
		if _, err := shipGoods(tx, actor, in.ProductID, in.BatchID, in.Quantity, why); err != nil {
			return err
		}

		item = models.ShipmentItem{
			ShipmentID: shipment.ID,
			ProductID:  in.ProductID,
			BatchID:    in.BatchID,
			Quantity:   in.Quantity,
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("create shipment item: %w", err)
		}

		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  entityShipmentItem,
			EntityID:    item.ID,
			Action:      models.AuditActionCreate,
			Description: why,
			After: map[string]any{
				"shipment_id": item.ShipmentID,
				"product_id":  item.ProductID,
				"batch_id":    item.BatchID,
				"quantity":    item.Quantity,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Service) GetShipment(ctx context.Context, id uint) (*models.Shipment, error) {
	q := s.db.WithContext(ctx).
		Preload("Product").Preload("Batch").Preload("Counterparty").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
	return first[models.Shipment](q, "shipment", id)
}

func (s *Service) ListShipments(ctx context.Context, f ShipmentFilter) ([]models.Shipment, error) {
	q := s.db.WithContext(ctx).
		Preload("Product").Preload("Batch").Preload("Counterparty").Preload("Items")
	if !f.From.IsZero() {
		q = q.Where("shipment_date >= ?", dateOnly(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("shipment_date <= ?", dateOnly(f.To))
	}
	if f.CounterpartyID != 0 {
		q = q.Where("counterparty_id = ?", f.CounterpartyID)
	}

	var shipments []models.Shipment
	if err := q.Order("shipment_date DESC, id DESC").Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}
