package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/production-planner/internal/domain/catalog"
	"github.com/Spok95/production-planner/internal/domain/planning"
)

func TestProductsXLSX(t *testing.T) {
	kind := "Мягкая мебель"
	rows := []planning.ProductSummary{
		{
			Product: catalog.Product{
				ID: 1, Name: "Диван", Article: 5050,
				MinPartnerCost:  decimal.RequireFromString("15000.50"),
				ProductTypeName: &kind,
			},
			TotalProductionTime: 2.5,
		},
		{Product: catalog.Product{ID: 2, Name: "Стул", Article: 7}},
	}

	data, err := ProductsXLSX(rows)
	if err != nil {
		t.Fatalf("Failed to build workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	got, err := f.GetRows(productsSheet)
	if err != nil {
		t.Fatalf("Failed to read rows: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(got))
	}
	if got[0][6] != "Время изготовления, ч" {
		t.Errorf("Unexpected header: %v", got[0])
	}
	if got[1][1] != "Диван" || got[1][3] != "15000.5" || got[1][4] != kind || got[1][6] != "2.5" {
		t.Errorf("Unexpected first row: %v", got[1])
	}
	if got[2][1] != "Стул" || got[2][4] != "" {
		t.Errorf("Unexpected second row: %v", got[2])
	}
}

func TestProductsFileName(t *testing.T) {
	name := ProductsFileName(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	if name != "products_20260304_050607.xlsx" {
		t.Errorf("Unexpected file name %s", name)
	}
}
