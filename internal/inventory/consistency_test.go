package inventory

import (
	"testing"

	"factory-backend/internal/models"
	"factory-backend/internal/testutil"
)

func kinds(issues []Issue) map[IssueKind]int {
	m := make(map[IssueKind]int)
	for _, i := range issues {
		m[i.Kind]++
	}
	return m
}

func TestCheckConsistencyCleanLedger(t *testing.T) {
	p := newPlant(t, "100", "100")
	cp := testutil.SeedCounterparty(t, p.db, "Shop")
	b := p.batch(t, june1st)
	p.release(t, b, "5")
	p.release(t, p.batch(t, june1st), "0")
	if _, err := p.ship(b, cp, "5"); err != nil {
		t.Fatal(err)
	}

	issues, err := p.svc.CheckConsistency(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 0 {
		t.Fatalf("clean ledger reported issues: %+v", issues)
	}
}

func TestCheckConsistencyFindsBrokenRows(t *testing.T) {
	p := newPlant(t, "100", "100")
	b := p.batch(t, june1st)
	p.release(t, b, "5")

	orphan := models.FinishedGoodsStock{
		ProductID: p.product.ID, BatchNumber: "9 09.09.2024",
		ProductionDate: june1st, Quantity: testutil.D("1"),
	}
	if err := p.db.Create(&orphan).Error; err != nil {
		t.Fatal(err)
	}
	// goods disappear without a shipment
	if err := p.db.Model(&models.FinishedGoodsStock{}).
		Where("batch_number = ?", b.BatchNumber).
		Update("quantity", testutil.D("4")).Error; err != nil {
		t.Fatal(err)
	}
	// a released batch whose finished goods row is gone
	lost := p.batch(t, june1st)
	if err := p.db.Model(lost).Update("quantity", testutil.D("2")).Error; err != nil {
		t.Fatal(err)
	}
	// a closed batch that still holds quantity
	closed := p.batch(t, june1st)
	if err := p.db.Model(closed).Updates(map[string]any{"is_used": true, "quantity": testutil.D("1")}).Error; err != nil {
		t.Fatal(err)
	}

	issues, err := p.svc.CheckConsistency(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := kinds(issues)
	want := map[IssueKind]int{
		IssueOrphanFinishedGoods:  1,
		IssueUnaccountedGoods:     1,
		IssueMissingFinishedGoods: 2,
		IssueUsedBatchQuantity:    1,
	}
	for k, n := range want {
		if got[k] != n {
			t.Errorf("%s: got %d, want %d (all: %+v)", k, got[k], n, issues)
		}
	}
}
