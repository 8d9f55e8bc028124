package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/production-planner/internal/domain/planning"
)

const productsSheet = "Продукция"

var productsHeader = []interface{}{
	"product_id",
	"Наименование продукции",
	"Артикул",
	"Минимальная стоимость для партнера",
	"Тип продукции",
	"Основной материал",
	"Время изготовления, ч",
}

// ProductsXLSX формирует книгу со списком продукции и временем изготовления.
func ProductsXLSX(rows []planning.ProductSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), productsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(productsSheet, "A1", &productsHeader); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	for i, p := range rows {
		excelRow := []interface{}{
			p.ID,
			p.Name,
			p.Article,
			p.MinPartnerCost.Round(2).InexactFloat64(),
			deref(p.ProductTypeName),
			deref(p.MainMaterialName),
			p.TotalProductionTime,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cell: %w", err)
		}
		if err := f.SetSheetRow(productsSheet, cell, &excelRow); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(productsSheet, "B", "B", 40); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	return buf.Bytes(), nil
}

func ProductsFileName(now time.Time) string {
	return fmt.Sprintf("products_%s.xlsx", now.Format("20060102_150405"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
