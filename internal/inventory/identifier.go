package inventory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"factory-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	batchDateLayout   = "02.01.2006"
	sequenceKeyLayout = "2006-01-02"

	maxSequenceSkips = 100
)

// FormatBatchNumber renders "<seq> DD.MM.YYYY".
func FormatBatchNumber(seq int, productionDate time.Time) string {
	return fmt.Sprintf("%d %s", seq, dateOnly(productionDate).Format(batchDateLayout))
}

// parseBatchSequence returns the leading integer of a batch number, or 0.
func parseBatchSequence(number string) int {
	fields := strings.Fields(number)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func sequenceKey(productionDate time.Time) string {
	return dateOnly(productionDate).Format(sequenceKeyLayout)
}

// nextBatchNumber allocates the next number for productionDate. It must run
// inside the transaction that inserts the batch: the counter row stays locked
// until that transaction ends.
func nextBatchNumber(tx *gorm.DB, productionDate time.Time) (string, error) {
	date := dateOnly(productionDate)
	key := sequenceKey(date)

	var seq models.BatchSequence
	err := forUpdate(tx).Where("date_key = ?", key).Take(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed, err := scanLastSequence(tx, date)
		if err != nil {
			return "", err
		}
		row := models.BatchSequence{DateKey: key, LastValue: seed}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return "", fmt.Errorf("create batch sequence %s: %w", key, err)
		}
		err = forUpdate(tx).Where("date_key = ?", key).Take(&seq).Error
		if err != nil {
			return "", fmt.Errorf("lock batch sequence %s: %w", key, err)
		}
	} else if err != nil {
		return "", fmt.Errorf("lock batch sequence %s: %w", key, err)
	}

	// numbers written outside the counter (imports, older data) are skipped
	var number string
	for skipped := 0; ; skipped++ {
		if skipped == maxSequenceSkips {
			return "", fmt.Errorf("%w: no free number after %s", ErrDuplicateIdentifier, number)
		}
		seq.LastValue++
		number = FormatBatchNumber(seq.LastValue, date)

		var taken int64
		if err := tx.Model(&models.Batch{}).Where("batch_number = ?", number).Count(&taken).Error; err != nil {
			return "", err
		}
		if taken == 0 {
			break
		}
	}

	if err := tx.Model(&models.BatchSequence{}).
		Where("date_key = ?", key).
		Update("last_value", seq.LastValue).Error; err != nil {
		return "", fmt.Errorf("advance batch sequence %s: %w", key, err)
	}
	return number, nil
}

// scanLastSequence seeds a new counter from the newest batch already on the date.
func scanLastSequence(tx *gorm.DB, date time.Time) (int, error) {
	var latest models.Batch
	err := tx.Where("production_date = ?", date).Order("id DESC").Take(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseBatchSequence(latest.BatchNumber), nil
}
