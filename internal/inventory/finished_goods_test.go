package inventory

import (
	"errors"
	"testing"

	"factory-backend/internal/models"
	"factory-backend/internal/testutil"
)

func TestApplyFinishedGoodsDelta(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		used     bool
		delta    string
		want     string
		wantUsed bool
		wantErr  error
	}{
		{"credit", "0", false, "5", "5", false, nil},
		{"partial debit", "5", false, "-2", "3", false, nil},
		{"exact debit closes", "5", false, "-5", "0", true, nil},
		{"overdraw", "5", false, "-5.01", "5", false, ErrInsufficientStock},
		{"credit used row", "0", true, "1", "0", true, ErrAlreadyUsed},
		{"zero credit closes", "0", false, "0", "0", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := &models.FinishedGoodsStock{BatchNumber: "1 01.06.2024", Quantity: testutil.D(tt.start), IsUsed: tt.used}
			err := ApplyFinishedGoodsDelta(row, testutil.D(tt.delta))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !row.Quantity.Equal(testutil.D(tt.want)) || row.IsUsed != tt.wantUsed {
				t.Fatalf("row = %s used=%v, want %s used=%v", row.Quantity, row.IsUsed, tt.want, tt.wantUsed)
			}
		})
	}
}

func TestListFinishedGoodsOpenOnly(t *testing.T) {
	p := newPlant(t, "100", "100")
	p.release(t, p.batch(t, june1st), "4")
	p.release(t, p.batch(t, june1st), "0")

	all, err := p.svc.ListFinishedGoods(ctx, FinishedGoodsFilter{})
	if err != nil {
		t.Fatal(err)
	}
	open, err := p.svc.ListFinishedGoods(ctx, FinishedGoodsFilter{ProductID: p.product.ID, OpenOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || len(open) != 1 {
		t.Fatalf("all=%d open=%d, want 2 and 1", len(all), len(open))
	}
	if open[0].BatchNumber != "1 01.06.2024" || open[0].Product.Name != p.product.Name {
		t.Fatalf("open row = %+v", open[0])
	}
}
