package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"factory-backend/internal/audit"
	"factory-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LineInput struct {
	Name   string
	Volume decimal.Decimal
	Number int
}

type ProductInput struct {
	LineID uint
	Name   string
	GTIN   string
	Volume decimal.Decimal
}

type CounterpartyInput struct {
	Name          string
	Address       string
	ContactNumber string
}

func requireName(field, v string, max int) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", validationf("%s is required", field)
	}
	if utf8.RuneCountInString(v) > max {
		return "", validationf("%s is longer than %d characters", field, max)
	}
	return v, nil
}

func auditCreate(tx *gorm.DB, actor audit.Actor, entity string, id uint, desc string, after any) error {
	return audit.WriteLog(tx, audit.LogOptions{
		Actor:       actor,
		EntityType:  entity,
		EntityID:    id,
		Action:      models.AuditActionCreate,
		Description: desc,
		After:       after,
	})
}

func (s *Service) CreateLine(ctx context.Context, actor audit.Actor, in LineInput) (*models.Line, error) {
	name, err := requireName("name", in.Name, 100)
	if err != nil {
		return nil, err
	}
	if err := checkAmount("volume", in.Volume, false); err != nil {
		return nil, err
	}

	line := models.Line{Name: name, Volume: in.Volume, Number: in.Number}
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.Line{}).Where("name = ?", name).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("%w: line %q", ErrDuplicateName, name)
		}
		if err := tx.Create(&line).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: line %q", ErrDuplicateName, name)
			}
			return fmt.Errorf("create line: %w", err)
		}
		return auditCreate(tx, actor, "line", line.ID, "line "+name+" created", line)
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (s *Service) ListLines(ctx context.Context) ([]models.Line, error) {
	var lines []models.Line
	if err := s.db.WithContext(ctx).Order("number, id").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// CreateProduct adds a product to a line. Its volume must equal the line's and
// its name must be unique on the line.
func (s *Service) CreateProduct(ctx context.Context, actor audit.Actor, in ProductInput) (*models.Product, error) {
	name, err := requireName("name", in.Name, 100)
	if err != nil {
		return nil, err
	}
	gtin, err := requireName("gtin", in.GTIN, 50)
	if err != nil {
		return nil, err
	}
	if err := checkAmount("volume", in.Volume, false); err != nil {
		return nil, err
	}

	var product models.Product
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		line, err := first[models.Line](tx, "line", in.LineID)
		if err != nil {
			return err
		}
		if !line.Volume.Equal(in.Volume) {
			return fmt.Errorf("%w: line %s has volume %s, product has %s",
				ErrVolumeMismatch, line.Name, line.Volume.StringFixed(2), in.Volume.StringFixed(2))
		}

		var taken int64
		if err := tx.Model(&models.Product{}).Where("name = ? AND line_id = ?", name, line.ID).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("%w: product %q on line %s", ErrDuplicateName, name, line.Name)
		}

		product = models.Product{Name: name, GTIN: gtin, Volume: in.Volume, LineID: line.ID}
		if err := tx.Create(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: product %q on line %s", ErrDuplicateName, name, line.Name)
			}
			return fmt.Errorf("create product: %w", err)
		}
		product.Line = *line
		return auditCreate(tx, actor, "product", product.ID, "product "+name+" created", map[string]any{
			"name": name, "gtin": gtin, "volume": in.Volume, "line_id": line.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Service) ListProducts(ctx context.Context, lineID uint) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Preload("Line")
	if lineID != 0 {
		q = q.Where("line_id = ?", lineID)
	}
	var products []models.Product
	if err := q.Order("name, id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Service) CreateMaterial(ctx context.Context, actor audit.Actor, name string, unit models.MaterialUnit) (*models.Material, error) {
	name, err := requireName("name", name, 100)
	if err != nil {
		return nil, err
	}
	if !unit.Valid() {
		return nil, validationf("unknown unit %q", unit)
	}

	material := models.Material{Name: name, Unit: unit}
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&material).Error; err != nil {
			return fmt.Errorf("create material: %w", err)
		}
		return auditCreate(tx, actor, "material", material.ID, "material "+name+" created", material)
	})
	if err != nil {
		return nil, err
	}
	return &material, nil
}

// RenameMaterial changes the display name only; the unit is fixed at creation.
func (s *Service) RenameMaterial(ctx context.Context, actor audit.Actor, id uint, name string) (*models.Material, error) {
	name, err := requireName("name", name, 100)
	if err != nil {
		return nil, err
	}

	var material *models.Material
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		m, err := first[models.Material](forUpdate(tx), "material", id)
		if err != nil {
			return err
		}
		before := map[string]any{"name": m.Name}
		if err := tx.Model(m).Update("name", name).Error; err != nil {
			return fmt.Errorf("rename material %d: %w", id, err)
		}
		m.Name = name
		material = m
		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  "material",
			EntityID:    m.ID,
			Action:      models.AuditActionUpdate,
			Description: "material renamed",
			Before:      before,
			After:       map[string]any{"name": name},
		})
	})
	if err != nil {
		return nil, err
	}
	return material, nil
}

func (s *Service) ListMaterials(ctx context.Context) ([]models.Material, error) {
	var materials []models.Material
	if err := s.db.WithContext(ctx).Order("name, id").Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

// CreateProductMaterial adds a bill-of-materials line: perUnit of the material
// per one unit of the product.
func (s *Service) CreateProductMaterial(ctx context.Context, actor audit.Actor, productID, materialID uint, perUnit decimal.Decimal) (*models.ProductMaterial, error) {
	if err := checkAmount("quantity", perUnit, false); err != nil {
		return nil, err
	}

	var pm models.ProductMaterial
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := first[models.Product](tx, "product", productID); err != nil {
			return err
		}
		material, err := first[models.Material](tx, "material", materialID)
		if err != nil {
			return err
		}

		var taken int64
		if err := tx.Model(&models.ProductMaterial{}).
			Where("product_id = ? AND material_id = ?", productID, materialID).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateBOMLine, material.Name)
		}

		pm = models.ProductMaterial{ProductID: productID, MaterialID: materialID, Quantity: perUnit}
		if err := tx.Create(&pm).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrDuplicateBOMLine, material.Name)
			}
			return fmt.Errorf("create bom line: %w", err)
		}
		pm.Material = *material
		return auditCreate(tx, actor, "product_material", pm.ID,
			fmt.Sprintf("%s %s per unit of product %d", perUnit.StringFixed(2), material.Name, productID),
			map[string]any{"product_id": productID, "material_id": materialID, "quantity": perUnit})
	})
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

func (s *Service) ListProductMaterials(ctx context.Context, productID uint) ([]models.ProductMaterial, error) {
	q := s.db.WithContext(ctx).Preload("Material")
	if productID != 0 {
		q = q.Where("product_id = ?", productID)
	}
	var lines []models.ProductMaterial
	if err := q.Order("product_id, id").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *Service) CreateCounterparty(ctx context.Context, actor audit.Actor, in CounterpartyInput) (*models.Counterparty, error) {
	name, err := requireName("name", in.Name, 100)
	if err != nil {
		return nil, err
	}
	address, err := requireName("address", in.Address, 255)
	if err != nil {
		return nil, err
	}
	contact, err := requireName("contact number", in.ContactNumber, 15)
	if err != nil {
		return nil, err
	}

	cp := models.Counterparty{Name: name, Address: address, ContactNumber: contact}
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&cp).Error; err != nil {
			return fmt.Errorf("create counterparty: %w", err)
		}
		return auditCreate(tx, actor, "counterparty", cp.ID, "counterparty "+name+" created", cp)
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Service) ListCounterparties(ctx context.Context) ([]models.Counterparty, error) {
	var cps []models.Counterparty
	if err := s.db.WithContext(ctx).Order("name, id").Find(&cps).Error; err != nil {
		return nil, err
	}
	return cps, nil
}
