package inventory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"factory-backend/internal/audit"
	"factory-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	sheetMaterials     = "Materials"
	sheetFinishedGoods = "FinishedGoods"
)

type ImportResult struct {
	Updated   int      `json:"updated"`
	Unmatched []string `json:"unmatched"`
	Ambiguous []string `json:"ambiguous"` // names shared by more than one material
}

// normalizeName folds case and whitespace so spreadsheet names match catalog names.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToUpper(strings.TrimSpace(row[0]))
	return strings.Contains(first, "MATERIAL") || strings.Contains(first, "NAME")
}

func writeRow(f *excelize.File, sheet string, rowNum int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// ExportStockWorkbook renders material stock and finished goods into an xlsx
// workbook with one sheet each. The Materials sheet has the layout
// ImportStockWorkbook reads.
func (s *Service) ExportStockWorkbook(ctx context.Context) (*bytes.Buffer, error) {
	stocks, err := s.ListStocks(ctx)
	if err != nil {
		return nil, err
	}
	goods, err := s.ListFinishedGoods(ctx, FinishedGoodsFilter{})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetMaterials)
	if _, err := f.NewSheet(sheetFinishedGoods); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	if err := writeRow(f, sheetMaterials, 1, "Material", "Quantity", "Unit"); err != nil {
		return nil, err
	}
	for i, st := range stocks {
		if err := writeRow(f, sheetMaterials, i+2, st.Material.Name, st.Quantity.InexactFloat64(), string(st.Material.Unit)); err != nil {
			return nil, err
		}
	}

	if err := writeRow(f, sheetFinishedGoods, 1, "Product", "Batch number", "Production date", "Quantity", "Used"); err != nil {
		return nil, err
	}
	for i, g := range goods {
		if err := writeRow(f, sheetFinishedGoods, i+2,
			g.Product.Name, g.BatchNumber, g.ProductionDate.Format(batchDateLayout), g.Quantity.InexactFloat64(), g.IsUsed); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// ImportStockWorkbook sets material stock from the first sheet of an xlsx
// workbook: column A is the material name, column B the counted quantity.
// Rows naming unknown materials, or a name several materials share, are
// reported, not applied. Any malformed
// quantity aborts the whole import.
func (s *Service) ImportStockWorkbook(ctx context.Context, actor audit.Actor, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, validationf("unreadable workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, validationf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, validationf("unreadable sheet %s: %v", sheets[0], err)
	}
	firstRow := 1
	if len(rows) > 0 && isHeaderRow(rows[0]) {
		rows = rows[1:]
		firstRow = 2
	}

	res := &ImportResult{Unmatched: make([]string, 0), Ambiguous: make([]string, 0)}
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		var materials []models.Material
		if err := tx.Find(&materials).Error; err != nil {
			return err
		}
		byName := make(map[string][]uint, len(materials))
		for _, m := range materials {
			key := normalizeName(m.Name)
			byName[key] = append(byName[key], m.ID)
		}

		for i, row := range rows {
			rowNum := i + firstRow
			if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
				continue
			}
			name := strings.TrimSpace(row[0])
			ids := byName[normalizeName(name)]
			if len(ids) == 0 {
				res.Unmatched = append(res.Unmatched, name)
				continue
			}
			if len(ids) > 1 {
				res.Ambiguous = append(res.Ambiguous, name)
				continue
			}
			id := ids[0]
			if len(row) < 2 {
				return validationf("row %d (%s): quantity missing", rowNum, name)
			}
			qty, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(row[1]), ",", "."))
			if err != nil {
				return validationf("row %d (%s): %q is not a number", rowNum, name, row[1])
			}
			if err := checkAmount("quantity", qty, true); err != nil {
				return fmt.Errorf("row %d (%s): %w", rowNum, name, err)
			}
			if _, err := setStock(tx, actor, id, qty); err != nil {
				return err
			}
			res.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
