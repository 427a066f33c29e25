package inventory

import (
	"errors"
	"sync"
	"testing"

	"factory-backend/internal/models"
	"factory-backend/internal/testutil"
)

func TestReleaseProducts(t *testing.T) {
	p := newPlant(t, "10", "5")
	b := p.batch(t, june1st)

	res := p.release(t, b, "3")

	if !res.Batch.Quantity.Equal(testutil.D("3")) || res.Batch.IsUsed {
		t.Fatalf("batch = %s used=%v, want 3 open", res.Batch.Quantity, res.Batch.IsUsed)
	}
	if got := testutil.StockOf(t, p.db, p.sugar.ID); !got.Equal(testutil.D("4")) {
		t.Errorf("sugar = %s, want 4", got)
	}
	if got := testutil.StockOf(t, p.db, p.salt.ID); !got.Equal(testutil.D("3.5")) {
		t.Errorf("salt = %s, want 3.5", got)
	}
	if len(res.Consumed) != 2 || res.Consumed[0].Material != "sugar" || !res.Consumed[0].Amount.Equal(testutil.D("6")) {
		t.Errorf("consumed = %+v", res.Consumed)
	}

	g := res.FinishedGoods
	if g.ProductID != p.product.ID || g.BatchNumber != b.BatchNumber || !g.ProductionDate.Equal(june1st) {
		t.Fatalf("finished goods identity = (%d, %q, %s)", g.ProductID, g.BatchNumber, g.ProductionDate)
	}
	if !g.Quantity.Equal(testutil.D("3")) || g.IsUsed {
		t.Fatalf("finished goods = %s used=%v, want 3 open", g.Quantity, g.IsUsed)
	}
}

func TestReleaseIsAtomic(t *testing.T) {
	// sugar covers one unit, salt does not
	p := newPlant(t, "2", "0.40")
	b := p.batch(t, june1st)

	_, err := p.svc.ReleaseProducts(ctx, tester, b.ID, testutil.D("1"))
	var ise *InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if ise.Resource != "salt" {
		t.Fatalf("Resource = %q, want salt", ise.Resource)
	}

	if got := testutil.StockOf(t, p.db, p.sugar.ID); !got.Equal(testutil.D("2")) {
		t.Errorf("sugar = %s after failed release, want 2", got)
	}
	fresh, err := p.svc.GetBatch(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !fresh.Quantity.IsZero() || fresh.IsUsed {
		t.Errorf("batch mutated by failed release: %s used=%v", fresh.Quantity, fresh.IsUsed)
	}
	if n := count(t, p.db, &models.FinishedGoodsStock{}); n != 0 {
		t.Errorf("%d finished goods rows after failed release", n)
	}
	if n := count(t, p.db, &models.AuditLog{}); n != 1 {
		t.Errorf("%d audit rows, want only the batch creation", n)
	}
}

func TestReleaseZeroClosesBatch(t *testing.T) {
	p := newPlant(t, "10", "10")
	b := p.batch(t, june1st)

	res := p.release(t, b, "0")
	if !res.Batch.IsUsed {
		t.Fatal("batch should be used after a zero release")
	}
	if got := testutil.StockOf(t, p.db, p.sugar.ID); !got.Equal(testutil.D("10")) {
		t.Errorf("sugar = %s, want untouched 10", got)
	}

	_, err := p.svc.ReleaseProducts(ctx, tester, b.ID, testutil.D("1"))
	if !errors.Is(err, ErrAlreadyUsed) || !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("release of used batch: err = %v, want ErrAlreadyUsed", err)
	}
}

func TestReleaseOnlyOnce(t *testing.T) {
	p := newPlant(t, "10", "10")
	b := p.batch(t, june1st)
	p.release(t, b, "1")

	_, err := p.svc.ReleaseProducts(ctx, tester, b.ID, testutil.D("1"))
	if !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("second release: err = %v, want ErrInvalidOperation", err)
	}
	if got := testutil.StockOf(t, p.db, p.sugar.ID); !got.Equal(testutil.D("8")) {
		t.Fatalf("sugar = %s, want 8", got)
	}
}

func TestReleaseErrors(t *testing.T) {
	p := newPlant(t, "10", "10")
	b := p.batch(t, june1st)

	if _, err := p.svc.ReleaseProducts(ctx, tester, 999, testutil.D("1")); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown batch: err = %v", err)
	}
	if _, err := p.svc.ReleaseProducts(ctx, tester, b.ID, testutil.D("-1")); !errors.Is(err, ErrValidation) {
		t.Errorf("negative quantity: err = %v", err)
	}

	// a BOM material without a stock row
	vanilla := testutil.SeedMaterial(t, p.db, "vanilla", models.UnitGram, "")
	testutil.SeedBOM(t, p.db, p.product, vanilla, "0.01")
	if _, err := p.svc.ReleaseProducts(ctx, tester, b.ID, testutil.D("1")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing stock row: err = %v", err)
	}
	if got := testutil.StockOf(t, p.db, p.sugar.ID); !got.Equal(testutil.D("10")) {
		t.Errorf("sugar = %s, want 10", got)
	}
}

func TestReleaseWithoutBOM(t *testing.T) {
	db := testutil.DB(t)
	svc := NewService(db, testutil.Logger(t))
	line := testutil.SeedLine(t, db, "Water", "1.00")
	water := testutil.SeedProduct(t, db, line, "Still water")

	b, err := svc.CreateBatch(ctx, tester, BatchInput{ProductID: water.ID, LineID: line.ID, ProductionDate: june1st})
	if err != nil {
		t.Fatal(err)
	}
	res, err := svc.ReleaseProducts(ctx, tester, b.ID, testutil.D("100"))
	if err != nil {
		t.Fatalf("release without BOM: %v", err)
	}
	if len(res.Consumed) != 0 || !res.FinishedGoods.Quantity.Equal(testutil.D("100")) {
		t.Fatalf("unexpected result: consumed=%v goods=%s", res.Consumed, res.FinishedGoods.Quantity)
	}
}

// On the default sqlite harness the single connection runs the two releases one
// after the other; TestParallelReleasesUnderRowLocks exercises the row locks.
func TestConcurrentReleasesNeverOverdraw(t *testing.T) {
	db := testutil.DB(t)
	svc := NewService(db, testutil.Logger(t))
	line := testutil.SeedLine(t, db, "Line A", "0.50")
	product := testutil.SeedProduct(t, db, line, "Juice")
	pulp := testutil.SeedMaterial(t, db, "pulp", models.UnitLiter, "10")
	testutil.SeedBOM(t, db, product, pulp, "1")

	var batches []*models.Batch
	for i := 0; i < 2; i++ {
		b, err := svc.CreateBatch(ctx, tester, BatchInput{ProductID: product.ID, LineID: line.ID, ProductionDate: june1st})
		if err != nil {
			t.Fatal(err)
		}
		batches = append(batches, b)
	}

	errs := make([]error, len(batches))
	var wg sync.WaitGroup
	for i, b := range batches {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, errs[i] = svc.ReleaseProducts(ctx, tester, id, testutil.D("6"))
		}(i, b.ID)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || short != 1 {
		t.Fatalf("successes=%d insufficient=%d, want 1 and 1", ok, short)
	}
	if got := testutil.StockOf(t, db, pulp.ID); !got.Equal(testutil.D("4")) {
		t.Fatalf("pulp = %s, want 4", got)
	}
}

func TestParallelReleasesUnderRowLocks(t *testing.T) {
	db := testutil.PostgresDB(t)
	svc := NewService(db, testutil.Logger(t))
	line := testutil.SeedLine(t, db, "Line A", "0.50")
	product := testutil.SeedProduct(t, db, line, "Juice")
	pulp := testutil.SeedMaterial(t, db, "pulp", models.UnitLiter, "10")
	water := testutil.SeedMaterial(t, db, "water", models.UnitLiter, "100")
	testutil.SeedBOM(t, db, product, pulp, "3")
	testutil.SeedBOM(t, db, product, water, "1")

	const workers = 8
	ids := make([]uint, 0, workers)
	for i := 0; i < workers; i++ {
		b, err := svc.CreateBatch(ctx, tester, BatchInput{ProductID: product.ID, LineID: line.ID, ProductionDate: june1st})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, b.ID)
	}

	start := make(chan struct{})
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.ReleaseProducts(ctx, tester, id, testutil.D("1"))
		}(i, id)
	}
	close(start)
	wg.Wait()

	var ok int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 3 {
		t.Fatalf("successes = %d, want 3", ok)
	}
	if got := testutil.StockOf(t, db, pulp.ID); !got.Equal(testutil.D("1")) {
		t.Fatalf("pulp = %s, want 1", got)
	}
	if got := testutil.StockOf(t, db, water.ID); !got.Equal(testutil.D("97")) {
		t.Fatalf("water = %s, want 97", got)
	}
}

func TestCanRelease(t *testing.T) {
	open := &models.Batch{}
	if !CanRelease(open, testutil.D("5")) || !CanRelease(open, testutil.D("0")) {
		t.Error("open batch should accept a release")
	}
	if CanRelease(open, testutil.D("-1")) {
		t.Error("negative release accepted")
	}
	if CanRelease(&models.Batch{IsUsed: true}, testutil.D("1")) {
		t.Error("used batch accepted a release")
	}
	if CanRelease(&models.Batch{Quantity: testutil.D("3")}, testutil.D("1")) {
		t.Error("released batch accepted a second release")
	}
}
