package inventory

import (
	"context"
	"fmt"

	"factory-backend/internal/models"

	"github.com/shopspring/decimal"
)

type IssueKind string

const (
	IssueOrphanFinishedGoods  IssueKind = "orphan_finished_goods"
	IssueMissingFinishedGoods IssueKind = "missing_finished_goods"
	IssueNegativeQuantity     IssueKind = "negative_quantity"
	IssueUsedBatchQuantity    IssueKind = "used_batch_with_quantity"
	IssueUnaccountedGoods     IssueKind = "unaccounted_goods"
)

// Issue is one ledger inconsistency found by CheckConsistency.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Entity   string    `json:"entity"`
	EntityID uint      `json:"entity_id"`
	Detail   string    `json:"detail"`
}

type goodsIdentity struct {
	productID   uint
	batchNumber string
	date        string
}

func batchIdentity(b *models.Batch) goodsIdentity {
	return goodsIdentity{b.ProductID, b.BatchNumber, b.ProductionDate.Format(sequenceKeyLayout)}
}

func goodsIdentityOf(g *models.FinishedGoodsStock) goodsIdentity {
	return goodsIdentity{g.ProductID, g.BatchNumber, g.ProductionDate.Format(sequenceKeyLayout)}
}

// CheckConsistency scans the ledger for rows that break its invariants:
// finished goods whose (product, batch number, date) does not resolve to a
// batch, released batches without finished goods, negative quantities, used
// batches still holding quantity, and released quantity that does not equal
// what is on hand plus what was shipped.
func (s *Service) CheckConsistency(ctx context.Context) ([]Issue, error) {
	db := s.db.WithContext(ctx)

	var batches []models.Batch
	if err := db.Order("id").Find(&batches).Error; err != nil {
		return nil, err
	}
	var goods []models.FinishedGoodsStock
	if err := db.Order("id").Find(&goods).Error; err != nil {
		return nil, err
	}
	var stocks []models.MaterialStock
	if err := db.Order("id").Find(&stocks).Error; err != nil {
		return nil, err
	}
	var shipments []models.Shipment
	if err := db.Find(&shipments).Error; err != nil {
		return nil, err
	}
	var items []models.ShipmentItem
	if err := db.Find(&items).Error; err != nil {
		return nil, err
	}

	issues := make([]Issue, 0)
	negative := func(entity string, id uint, q decimal.Decimal) {
		if q.IsNegative() {
			issues = append(issues, Issue{IssueNegativeQuantity, entity, id, "quantity " + q.StringFixed(2)})
		}
	}

	for _, st := range stocks {
		negative(entityMaterialStock, st.ID, st.Quantity)
	}

	shipped := make(map[uint]decimal.Decimal)
	for _, sh := range shipments {
		shipped[sh.BatchID] = shipped[sh.BatchID].Add(sh.Quantity)
	}
	for _, it := range items {
		shipped[it.BatchID] = shipped[it.BatchID].Add(it.Quantity)
	}

	goodsByIdentity := make(map[goodsIdentity]*models.FinishedGoodsStock, len(goods))
	for i := range goods {
		g := &goods[i]
		goodsByIdentity[goodsIdentityOf(g)] = g
		negative(entityFinishedGoods, g.ID, g.Quantity)
	}

	batchIdentities := make(map[goodsIdentity]bool, len(batches))
	for i := range batches {
		b := &batches[i]
		key := batchIdentity(b)
		batchIdentities[key] = true
		negative(entityBatch, b.ID, b.Quantity)

		if b.IsUsed && !b.Quantity.IsZero() {
			issues = append(issues, Issue{IssueUsedBatchQuantity, entityBatch, b.ID,
				fmt.Sprintf("batch %s is used but holds %s", b.BatchNumber, b.Quantity.StringFixed(2))})
		}
		if !b.Quantity.IsPositive() {
			continue
		}

		g, ok := goodsByIdentity[key]
		if !ok {
			issues = append(issues, Issue{IssueMissingFinishedGoods, entityBatch, b.ID,
				"released batch " + b.BatchNumber + " has no finished goods row"})
			continue
		}
		accounted := g.Quantity.Add(shipped[b.ID])
		if !accounted.Equal(b.Quantity) {
			issues = append(issues, Issue{IssueUnaccountedGoods, entityBatch, b.ID,
				fmt.Sprintf("batch %s released %s, on hand %s, shipped %s",
					b.BatchNumber, b.Quantity.StringFixed(2), g.Quantity.StringFixed(2), shipped[b.ID].StringFixed(2))})
		}
	}

	for i := range goods {
		g := &goods[i]
		if !batchIdentities[goodsIdentityOf(g)] {
			issues = append(issues, Issue{IssueOrphanFinishedGoods, entityFinishedGoods, g.ID,
				fmt.Sprintf("no batch %s of product %d on %s", g.BatchNumber, g.ProductID, g.ProductionDate.Format(sequenceKeyLayout))})
		}
	}

	return issues, nil
}
