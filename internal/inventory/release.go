package inventory

import (
	"context"
	"fmt"
	"sort"

	"factory-backend/internal/audit"
	"factory-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Consumption is the material a release took out of stock.
type Consumption struct {
	MaterialID uint
	Material   string
	Amount     decimal.Decimal
	Remaining  decimal.Decimal
}

type ReleaseResult struct {
	Batch         *models.Batch
	FinishedGoods *models.FinishedGoodsStock
	Consumed      []Consumption
}

// ReleaseProducts records quantity units of a batch as produced: it consumes
// the product's materials, sets the batch quantity and credits finished goods.
// Either every step commits or none does.
func (s *Service) ReleaseProducts(ctx context.Context, actor audit.Actor, batchID uint, quantity decimal.Decimal) (*ReleaseResult, error) {
	var res ReleaseResult
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		batch, err := first[models.Batch](forUpdate(tx), "batch", batchID)
		if err != nil {
			return err
		}
		if err := checkRelease(batch, quantity); err != nil {
			return err
		}

		reqs, err := requirementsFor(tx, batch.ProductID)
		if err != nil {
			return err
		}

		// Lock in material id order so concurrent releases cannot deadlock.
		ids := make([]uint, 0, len(reqs))
		for _, r := range reqs {
			ids = append(ids, r.Material.ID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		stocks := make(map[uint]*models.MaterialStock, len(ids))
		for _, id := range ids {
			if _, seen := stocks[id]; seen {
				continue
			}
			stock, err := lockStock(tx, id)
			if err != nil {
				return err
			}
			stocks[id] = stock
		}

		// Check every material before touching any of them.
		for _, r := range reqs {
			stock := stocks[r.Material.ID]
			if need := r.Needed(quantity); need.GreaterThan(stock.Quantity) {
				return &InsufficientStockError{Resource: r.Material.Name, Available: stock.Quantity, Requested: need}
			}
		}

		why := "release of batch " + batch.BatchNumber
		for _, r := range reqs {
			stock := stocks[r.Material.ID]
			amount := r.Needed(quantity)
			if amount.IsZero() {
				continue
			}
			if err := debitStock(tx, actor, stock, r.Material.Name, amount, why); err != nil {
				return err
			}
			res.Consumed = append(res.Consumed, Consumption{
				MaterialID: r.Material.ID,
				Material:   r.Material.Name,
				Amount:     amount,
				Remaining:  stock.Quantity,
			})
		}

		if err := releaseBatch(tx, actor, batch, quantity); err != nil {
			return err
		}

		goods, err := getOrCreateFinishedGoods(tx, batch.ProductID, batch.BatchNumber, batch.ProductionDate)
		if err != nil {
			return err
		}
		if err := updateFinishedGoods(tx, actor, goods, quantity, models.AuditActionCredit, why); err != nil {
			return err
		}

		res.Batch = batch
		res.FinishedGoods = goods
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("release batch %d: %w", batchID, err)
	}
	return &res, nil
}
