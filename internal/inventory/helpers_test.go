package inventory

import (
	"context"
	"testing"
	"time"

	"factory-backend/internal/audit"
	"factory-backend/internal/models"
	"factory-backend/internal/testutil"

	"gorm.io/gorm"
)

var (
	ctx     = context.Background()
	tester  = audit.Actor{UserID: 1, UserName: "tester"}
	june1st = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
)

// plant is a line with one product whose BOM is sugar 2 + salt 0.5 per unit.
type plant struct {
	db      *gorm.DB
	svc     *Service
	line    *models.Line
	product *models.Product
	sugar   *models.Material
	salt    *models.Material
}

func newPlant(t *testing.T, sugarStock, saltStock string) *plant {
	t.Helper()
	db := testutil.DB(t)
	p := &plant{db: db, svc: NewService(db, testutil.Logger(t))}
	p.line = testutil.SeedLine(t, db, "Line A", "0.50")
	p.product = testutil.SeedProduct(t, db, p.line, "Cola 0.5")
	p.sugar = testutil.SeedMaterial(t, db, "sugar", models.UnitGram, sugarStock)
	p.salt = testutil.SeedMaterial(t, db, "salt", models.UnitGram, saltStock)
	testutil.SeedBOM(t, db, p.product, p.sugar, "2")
	testutil.SeedBOM(t, db, p.product, p.salt, "0.5")
	return p
}

func (p *plant) batch(t *testing.T, date time.Time) *models.Batch {
	t.Helper()
	b, err := p.svc.CreateBatch(ctx, tester, BatchInput{ProductID: p.product.ID, LineID: p.line.ID, ProductionDate: date})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	return b
}

func (p *plant) release(t *testing.T, b *models.Batch, qty string) *ReleaseResult {
	t.Helper()
	res, err := p.svc.ReleaseProducts(ctx, tester, b.ID, testutil.D(qty))
	if err != nil {
		t.Fatalf("ReleaseProducts(%s, %s): %v", b.BatchNumber, qty, err)
	}
	return res
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
