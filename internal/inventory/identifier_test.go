package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"factory-backend/internal/models"
	"factory-backend/internal/testutil"
)

func TestFormatBatchNumber(t *testing.T) {
	got := FormatBatchNumber(3, time.Date(2024, time.December, 9, 17, 30, 0, 0, time.UTC))
	if got != "3 09.12.2024" {
		t.Fatalf("FormatBatchNumber = %q", got)
	}
}

func TestParseBatchSequence(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1 01.06.2024", 1},
		{"42 01.06.2024", 42},
		{"", 0},
		{"abc 01.06.2024", 0},
		{"-3 01.06.2024", 0},
		{"7", 7},
	}
	for _, tt := range tests {
		if got := parseBatchSequence(tt.in); got != tt.want {
			t.Errorf("parseBatchSequence(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCreateBatchNumbersPerDate(t *testing.T) {
	p := newPlant(t, "100", "100")

	first := p.batch(t, june1st)
	second := p.batch(t, june1st.Add(15*time.Hour))
	other := p.batch(t, june1st.AddDate(0, 0, 1))

	if first.BatchNumber != "1 01.06.2024" {
		t.Errorf("first = %q, want 1 01.06.2024", first.BatchNumber)
	}
	if second.BatchNumber != "2 01.06.2024" {
		t.Errorf("second = %q, want 2 01.06.2024", second.BatchNumber)
	}
	if other.BatchNumber != "1 02.06.2024" {
		t.Errorf("other date = %q, want 1 02.06.2024", other.BatchNumber)
	}
	if !first.Quantity.IsZero() || first.IsUsed {
		t.Errorf("new batch should be open with quantity 0, got %s used=%v", first.Quantity, first.IsUsed)
	}
	if !second.ProductionDate.Equal(june1st) {
		t.Errorf("production date not truncated: %s", second.ProductionDate)
	}
}

func TestCreateBatchSeedsCounterFromExistingBatches(t *testing.T) {
	p := newPlant(t, "100", "100")

	legacy := models.Batch{
		ProductID: p.product.ID, LineID: p.line.ID,
		BatchNumber: "7 01.06.2024", ProductionDate: june1st,
	}
	if err := p.db.Create(&legacy).Error; err != nil {
		t.Fatalf("seed legacy batch: %v", err)
	}

	b := p.batch(t, june1st)
	if b.BatchNumber != "8 01.06.2024" {
		t.Fatalf("BatchNumber = %q, want 8 01.06.2024", b.BatchNumber)
	}
}

func TestCreateBatchSkipsTakenNumbers(t *testing.T) {
	p := newPlant(t, "100", "100")

	// counter starts at 0, but "1 01.06.2024" and "2 01.06.2024" are held by batches on another date
	for _, number := range []string{"1 01.06.2024", "2 01.06.2024"} {
		clash := models.Batch{
			ProductID: p.product.ID, LineID: p.line.ID,
			BatchNumber: number, ProductionDate: june1st.AddDate(0, 0, -1),
		}
		if err := p.db.Create(&clash).Error; err != nil {
			t.Fatalf("seed clashing batch: %v", err)
		}
	}

	for _, want := range []string{"3 01.06.2024", "4 01.06.2024"} {
		b, err := p.svc.CreateBatch(ctx, tester, BatchInput{ProductID: p.product.ID, LineID: p.line.ID, ProductionDate: june1st})
		if err != nil {
			t.Fatalf("CreateBatch: %v", err)
		}
		if b.BatchNumber != want {
			t.Fatalf("batch number = %q, want %q", b.BatchNumber, want)
		}
	}

	var seq models.BatchSequence
	if err := p.db.Where("date_key = ?", "2024-06-01").Take(&seq).Error; err != nil {
		t.Fatal(err)
	}
	if seq.LastValue != 4 {
		t.Fatalf("last value = %d, want 4", seq.LastValue)
	}
}

func TestCreateBatchGivesUpAfterTooManyTakenNumbers(t *testing.T) {
	p := newPlant(t, "100", "100")

	clashes := make([]models.Batch, 0, maxSequenceSkips)
	for i := 1; i <= maxSequenceSkips; i++ {
		clashes = append(clashes, models.Batch{
			ProductID: p.product.ID, LineID: p.line.ID,
			BatchNumber: FormatBatchNumber(i, june1st), ProductionDate: june1st.AddDate(0, 0, -1),
		})
	}
	if err := p.db.Create(&clashes).Error; err != nil {
		t.Fatalf("seed clashing batches: %v", err)
	}

	_, err := p.svc.CreateBatch(ctx, tester, BatchInput{ProductID: p.product.ID, LineID: p.line.ID, ProductionDate: june1st})
	if !errors.Is(err, ErrDuplicateIdentifier) {
		t.Fatalf("err = %v, want ErrDuplicateIdentifier", err)
	}
	if n := count(t, p.db, &models.BatchSequence{}); n != 0 {
		t.Fatalf("counter row survived a rolled back allocation: %d rows", n)
	}
}

func TestCreateBatchValidation(t *testing.T) {
	p := newPlant(t, "100", "100")
	otherLine := testutil.SeedLine(t, p.db, "Line B", "1.00")

	tests := []struct {
		name string
		in   BatchInput
		want error
	}{
		{"missing date", BatchInput{ProductID: p.product.ID, LineID: p.line.ID}, ErrValidation},
		{"unknown product", BatchInput{ProductID: 999, LineID: p.line.ID, ProductionDate: june1st}, ErrNotFound},
		{"unknown line", BatchInput{ProductID: p.product.ID, LineID: 999, ProductionDate: june1st}, ErrNotFound},
		{"wrong line", BatchInput{ProductID: p.product.ID, LineID: otherLine.ID, ProductionDate: june1st}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.svc.CreateBatch(ctx, tester, tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if n := count(t, p.db, &models.Batch{}); n != 0 {
		t.Fatalf("%d batches created by failing calls", n)
	}
}

type recordingLocker struct {
	keys     []string
	released int
}

func (l *recordingLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.keys = append(l.keys, key)
	return func() { l.released++ }, nil
}

func TestCreateBatchUsesSequenceLocker(t *testing.T) {
	p := newPlant(t, "100", "100")
	locker := &recordingLocker{}
	p.svc.SetSequenceLocker(locker)

	p.batch(t, june1st)
	if len(locker.keys) != 1 || locker.keys[0] != "batch-seq:2024-06-01" || locker.released != 1 {
		t.Fatalf("locker saw keys=%v released=%d", locker.keys, locker.released)
	}
}
