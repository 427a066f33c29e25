package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceLocker serializes batch-number allocation across processes.
type SequenceLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Service owns every ledger mutation. Each exported mutating method runs in
// exactly one transaction.
type Service struct {
	db     *gorm.DB
	log    logrus.FieldLogger
	locker SequenceLocker
}

func NewService(db *gorm.DB, log logrus.FieldLogger) *Service {
	return &Service{db: db, log: log.WithField("module", "inventory")}
}

// SetSequenceLocker installs an optional cross-process lock around batch
// number allocation. Row locks alone are enough on a single database.
func (s *Service) SetSequenceLocker(l SequenceLocker) {
	s.locker = l
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// dateOnly truncates t to midnight UTC of its calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// first loads one row by id, mapping a miss to ErrNotFound.
func first[T any](tx *gorm.DB, what string, id uint) (*T, error) {
	var row T
	if err := tx.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("%s %d", what, id)
		}
		return nil, err
	}
	return &row, nil
}

// checkAmount enforces the two-decimal quantity format. Zero is only accepted
// when allowZero is set.
func checkAmount(field string, v decimal.Decimal, allowZero bool) error {
	if v.IsNegative() {
		return validationf("%s must not be negative", field)
	}
	if v.IsZero() && !allowZero {
		return validationf("%s must be greater than zero", field)
	}
	if !v.Equal(v.Round(2)) {
		return validationf("%s has more than two decimal places", field)
	}
	return nil
}
