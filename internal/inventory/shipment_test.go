package inventory

import (
	"errors"
	"testing"

	"factory-backend/internal/models"
	"factory-backend/internal/testutil"
)

func (p *plant) ship(batch *models.Batch, cp *models.Counterparty, qty string) (*models.Shipment, error) {
	return p.svc.CreateShipment(ctx, tester, ShipmentInput{
		ProductID:      p.product.ID,
		BatchID:        batch.ID,
		CounterpartyID: cp.ID,
		Quantity:       testutil.D(qty),
		ShipmentDate:   june1st.AddDate(0, 0, 3),
	})
}

func goodsOf(t *testing.T, p *plant, b *models.Batch) models.FinishedGoodsStock {
	t.Helper()
	var g models.FinishedGoodsStock
	if err := p.db.Where("batch_number = ?", b.BatchNumber).Take(&g).Error; err != nil {
		t.Fatalf("load finished goods of %s: %v", b.BatchNumber, err)
	}
	return g
}

func TestCreateShipment(t *testing.T) {
	p := newPlant(t, "100", "100")
	cp := testutil.SeedCounterparty(t, p.db, "Corner Shop")
	b := p.batch(t, june1st)
	p.release(t, b, "5")

	s, err := p.ship(b, cp, "2")
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if s.ID == 0 || !s.Quantity.Equal(testutil.D("2")) {
		t.Fatalf("shipment = %+v", s)
	}
	if g := goodsOf(t, p, b); !g.Quantity.Equal(testutil.D("3")) || g.IsUsed {
		t.Fatalf("finished goods = %s used=%v, want 3 open", g.Quantity, g.IsUsed)
	}

	if _, err := p.ship(b, cp, "3.01"); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("overdraw: err = %v, want ErrInsufficientStock", err)
	}
	if n := count(t, p.db, &models.Shipment{}); n != 1 {
		t.Fatalf("%d shipments, failed shipment must not persist", n)
	}
}

func TestShipmentExactZeroThenNotFound(t *testing.T) {
	p := newPlant(t, "100", "100")
	cp := testutil.SeedCounterparty(t, p.db, "Corner Shop")
	b := p.batch(t, june1st)
	p.release(t, b, "5")

	if _, err := p.ship(b, cp, "5"); err != nil {
		t.Fatalf("ship everything: %v", err)
	}
	g := goodsOf(t, p, b)
	if !g.Quantity.IsZero() || !g.IsUsed {
		t.Fatalf("finished goods = %s used=%v, want 0 used", g.Quantity, g.IsUsed)
	}

	_, err := p.ship(b, cp, "1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ship from used row: err = %v, want ErrNotFound", err)
	}
	if n := count(t, p.db, &models.Shipment{}); n != 1 {
		t.Fatalf("%d shipments, want 1", n)
	}
}

func TestCreateShipmentValidation(t *testing.T) {
	p := newPlant(t, "100", "100")
	cp := testutil.SeedCounterparty(t, p.db, "Corner Shop")
	b := p.batch(t, june1st)
	p.release(t, b, "5")
	otherProduct := testutil.SeedProduct(t, p.db, p.line, "Lemonade")

	tests := []struct {
		name string
		in   ShipmentInput
		want error
	}{
		{"zero quantity", ShipmentInput{ProductID: p.product.ID, BatchID: b.ID, CounterpartyID: cp.ID, ShipmentDate: june1st}, ErrValidation},
		{"no date", ShipmentInput{ProductID: p.product.ID, BatchID: b.ID, CounterpartyID: cp.ID, Quantity: testutil.D("1")}, ErrValidation},
		{"unknown counterparty", ShipmentInput{ProductID: p.product.ID, BatchID: b.ID, CounterpartyID: 999, Quantity: testutil.D("1"), ShipmentDate: june1st}, ErrNotFound},
		{"unknown batch", ShipmentInput{ProductID: p.product.ID, BatchID: 999, CounterpartyID: cp.ID, Quantity: testutil.D("1"), ShipmentDate: june1st}, ErrNotFound},
		{"batch of other product", ShipmentInput{ProductID: otherProduct.ID, BatchID: b.ID, CounterpartyID: cp.ID, Quantity: testutil.D("1"), ShipmentDate: june1st}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.svc.CreateShipment(ctx, tester, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if g := goodsOf(t, p, b); !g.Quantity.Equal(testutil.D("5")) {
		t.Fatalf("finished goods = %s, rejected shipments must not debit", g.Quantity)
	}
}

func TestAddShipmentItem(t *testing.T) {
	p := newPlant(t, "100", "100")
	cp := testutil.SeedCounterparty(t, p.db, "Corner Shop")
	first := p.batch(t, june1st)
	second := p.batch(t, june1st)
	p.release(t, first, "5")
	p.release(t, second, "2")

	s, err := p.ship(first, cp, "1")
	if err != nil {
		t.Fatal(err)
	}

	item, err := p.svc.AddShipmentItem(ctx, tester, s.ID, ShipmentItemInput{ProductID: p.product.ID, BatchID: second.ID, Quantity: testutil.D("2")})
	if err != nil {
		t.Fatalf("AddShipmentItem: %v", err)
	}
	if item.ShipmentID != s.ID {
		t.Fatalf("item attached to shipment %d", item.ShipmentID)
	}
	if g := goodsOf(t, p, second); !g.IsUsed {
		t.Fatalf("second batch goods should be closed, got %s", g.Quantity)
	}

	_, err = p.svc.AddShipmentItem(ctx, tester, s.ID, ShipmentItemInput{ProductID: p.product.ID, BatchID: first.ID, Quantity: testutil.D("4.5")})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("item overdraw: err = %v", err)
	}
	if _, err := p.svc.AddShipmentItem(ctx, tester, 999, ShipmentItemInput{ProductID: p.product.ID, BatchID: first.ID, Quantity: testutil.D("1")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown shipment: err = %v", err)
	}

	got, err := p.svc.GetShipment(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Items) != 1 || got.Counterparty.Name != "Corner Shop" {
		t.Fatalf("shipment = %+v", got)
	}
}

func TestListShipmentsByDate(t *testing.T) {
	p := newPlant(t, "100", "100")
	cp := testutil.SeedCounterparty(t, p.db, "Corner Shop")
	b := p.batch(t, june1st)
	p.release(t, b, "5")

	for _, day := range []int{1, 10, 20} {
		_, err := p.svc.CreateShipment(ctx, tester, ShipmentInput{
			ProductID: p.product.ID, BatchID: b.ID, CounterpartyID: cp.ID,
			Quantity: testutil.D("1"), ShipmentDate: june1st.AddDate(0, 0, day-1),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := p.svc.ListShipments(ctx, ShipmentFilter{From: june1st.AddDate(0, 0, 5), To: june1st.AddDate(0, 0, 19)})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ShipmentDate.Day() != 20 {
		t.Fatalf("got %d shipments, first on day %d", len(got), got[0].ShipmentDate.Day())
	}
}
