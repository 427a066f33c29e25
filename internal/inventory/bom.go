package inventory

import (
	"context"

	"factory-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Requirement is the amount of one material a single unit of product consumes.
type Requirement struct {
	Material models.Material
	PerUnit  decimal.Decimal
}

// Needed is the amount consumed by quantity units, rounded to two places.
func (r Requirement) Needed(quantity decimal.Decimal) decimal.Decimal {
	return r.PerUnit.Mul(quantity).Round(2)
}

// RequirementsFor resolves the bill of materials of a product in BOM line
// order. A product without BOM lines consumes nothing.
func (s *Service) RequirementsFor(ctx context.Context, productID uint) ([]Requirement, error) {
	return requirementsFor(s.db.WithContext(ctx), productID)
}

func requirementsFor(tx *gorm.DB, productID uint) ([]Requirement, error) {
	var lines []models.ProductMaterial
	if err := tx.Preload("Material").Where("product_id = ?", productID).Order("id").Find(&lines).Error; err != nil {
		return nil, err
	}
	reqs := make([]Requirement, 0, len(lines))
	for _, l := range lines {
		reqs = append(reqs, Requirement{Material: l.Material, PerUnit: l.Quantity})
	}
	return reqs, nil
}
