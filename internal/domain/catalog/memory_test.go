package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.PutProductType(ctx, ProductType{Name: "Мягкая мебель", Coefficient: 2}); err != nil {
		t.Fatalf("Failed to put product type: %v", err)
	}
	if err := s.PutMaterial(ctx, Material{Name: "Дерево", LossPercentage: 0.8}); err != nil {
		t.Fatalf("Failed to put material: %v", err)
	}
	for _, w := range []Workshop{
		{Name: "Раскроя", Type: "Обработка", Employees: 5},
		{Name: "Сборки", Type: "Сборка", Employees: 8},
	} {
		if err := s.PutWorkshop(ctx, w); err != nil {
			t.Fatalf("Failed to put workshop: %v", err)
		}
	}
	return s
}

func TestMemoryStore_CreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	draft := Draft{
		Name:             "Диван «Новый»",
		Article:          5050,
		MinPartnerCost:   decimal.RequireFromString("15000.50"),
		ProductTypeName:  strPtr("Мягкая мебель"),
		MainMaterialName: strPtr("Дерево"),
	}

	created, err := s.CreateProduct(ctx, draft)
	if err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	got, err := s.GetProduct(ctx, created.ID)
	if err != nil {
		t.Fatalf("Failed to get product: %v", err)
	}

	if got.Name != draft.Name {
		t.Errorf("Expected name %q, got %q", draft.Name, got.Name)
	}
	if got.Article != draft.Article {
		t.Errorf("Expected article %d, got %d", draft.Article, got.Article)
	}
	if !got.MinPartnerCost.Equal(draft.MinPartnerCost) {
		t.Errorf("Expected cost %s, got %s", draft.MinPartnerCost, got.MinPartnerCost)
	}
	if got.ProductTypeName == nil || *got.ProductTypeName != "Мягкая мебель" {
		t.Errorf("Expected product type to round-trip, got %v", got.ProductTypeName)
	}
	if got.MainMaterialName == nil || *got.MainMaterialName != "Дерево" {
		t.Errorf("Expected material to round-trip, got %v", got.MainMaterialName)
	}
}

func TestMemoryStore_CreateAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	seen := map[int64]bool{}
	for i := 0; i < 10; i++ {
		p, err := s.CreateProduct(ctx, Draft{Name: "Стул", Article: 1})
		if err != nil {
			t.Fatalf("Failed to create product %d: %v", i, err)
		}
		if seen[p.ID] {
			t.Fatalf("Duplicate id %d", p.ID)
		}
		seen[p.ID] = true
	}

	// id не переиспользуется после удаления
	if err := s.DeleteProduct(ctx, 10); err != nil {
		t.Fatalf("Failed to delete product: %v", err)
	}
	p, err := s.CreateProduct(ctx, Draft{Name: "Стол"})
	if err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	if seen[p.ID] {
		t.Errorf("Expected fresh id, got reused %d", p.ID)
	}
}

func TestMemoryStore_CreateValidation(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	tests := []struct {
		name  string
		draft Draft
		field string
		code  string
	}{
		{"empty name", Draft{Name: "  "}, "product_name", CodeRequired},
		{"negative article", Draft{Name: "A", Article: -1}, "article", CodeNonNegative},
		{"negative cost", Draft{Name: "A", MinPartnerCost: decimal.NewFromFloat(-0.01)}, "min_partner_cost", CodeNonNegative},
		{"unknown type", Draft{Name: "A", ProductTypeName: strPtr("Нет")}, "product_type_name", CodeUnknown},
		{"unknown material", Draft{Name: "A", MainMaterialName: strPtr("Нет")}, "main_material_name", CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateProduct(ctx, tt.draft)
			ve, ok := IsValidation(err)
			if !ok {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if ve.Violations[tt.field] != tt.code {
				t.Errorf("Expected %s=%s, got %v", tt.field, tt.code, ve.Violations)
			}
		})
	}

	products, _ := s.ListProducts(ctx)
	if len(products) != 0 {
		t.Errorf("Expected no products after failed creates, got %d", len(products))
	}
}

func TestMemoryStore_UpdateFullReplace(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	p, err := s.CreateProduct(ctx, Draft{
		Name:             "Кресло",
		Article:          10,
		MinPartnerCost:   decimal.NewFromInt(100),
		ProductTypeName:  strPtr("Мягкая мебель"),
		MainMaterialName: strPtr("Дерево"),
	})
	if err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}

	updated, err := s.UpdateProduct(ctx, p.ID, Draft{Name: "Кресло 2", Article: 11, MinPartnerCost: decimal.NewFromFloat(99.999)})
	if err != nil {
		t.Fatalf("Failed to update product: %v", err)
	}
	if updated.ProductTypeName != nil || updated.MainMaterialName != nil {
		t.Errorf("Expected references cleared, got type=%v material=%v", updated.ProductTypeName, updated.MainMaterialName)
	}
	if !updated.MinPartnerCost.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected cost rounded to 100, got %s", updated.MinPartnerCost)
	}
	if updated.ID != p.ID {
		t.Errorf("Expected id %d, got %d", p.ID, updated.ID)
	}

	if _, err := s.UpdateProduct(ctx, 999, Draft{Name: "X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateProduct(ctx, p.ID, Draft{Name: ""}); err == nil {
		t.Error("Expected validation error, got none")
	}
}

func TestMemoryStore_DeleteRemovesLinks(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	p, _ := s.CreateProduct(ctx, Draft{Name: "Шкаф"})
	other, _ := s.CreateProduct(ctx, Draft{Name: "Полка"})
	if err := s.SetProductWorkshop(ctx, p.ID, "Раскроя", 3); err != nil {
		t.Fatalf("Failed to link: %v", err)
	}
	if err := s.SetProductWorkshop(ctx, other.ID, "Сборки", 1.5); err != nil {
		t.Fatalf("Failed to link: %v", err)
	}

	if err := s.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := s.GetProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from GetProduct, got %v", err)
	}
	if _, err := s.ListWorkshopsForProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from ListWorkshopsForProduct, got %v", err)
	}
	if err := s.DeleteProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}

	all, _ := s.ListProductWorkshops(ctx)
	if len(all) != 1 || all[0].ProductID != other.ID {
		t.Errorf("Expected only the other product's link, got %+v", all)
	}
}

func TestMemoryStore_WorkshopViewsConsistent(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	p, _ := s.CreateProduct(ctx, Draft{Name: "Диван"})
	_ = s.SetProductWorkshop(ctx, p.ID, "Раскроя", 0.5)
	_ = s.SetProductWorkshop(ctx, p.ID, "Сборки", 2)
	_ = s.SetProductWorkshop(ctx, p.ID, "Раскроя", 0.75) // upsert

	withWorkshops, err := s.ListWorkshopsForProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("Failed to list workshops: %v", err)
	}
	rows, err := s.ListProductWorkshopsByProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("Failed to list rows: %v", err)
	}
	if len(withWorkshops) != 2 || len(rows) != 2 {
		t.Fatalf("Expected 2 associations in both views, got %d and %d", len(withWorkshops), len(rows))
	}
	for i := range rows {
		if rows[i].WorkshopName != withWorkshops[i].Workshop.Name || rows[i].Hours != withWorkshops[i].Hours {
			t.Errorf("Views diverge at %d: %+v vs %+v", i, rows[i], withWorkshops[i])
		}
		if rows[i].ProductName != "Диван" {
			t.Errorf("Expected product name Диван, got %s", rows[i].ProductName)
		}
	}
	if withWorkshops[0].Hours != 0.75 {
		t.Errorf("Expected upserted hours 0.75, got %v", withWorkshops[0].Hours)
	}
	if withWorkshops[1].Workshop.Employees != 8 {
		t.Errorf("Expected workshop details joined, got %+v", withWorkshops[1].Workshop)
	}
}

func TestMemoryStore_SetProductWorkshopErrors(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	p, _ := s.CreateProduct(ctx, Draft{Name: "Диван"})

	if err := s.SetProductWorkshop(ctx, 42, "Раскроя", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for product, got %v", err)
	}
	if err := s.SetProductWorkshop(ctx, p.ID, "Покраски", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for workshop, got %v", err)
	}
	if _, ok := IsValidation(s.SetProductWorkshop(ctx, p.ID, "Раскроя", -1)); !ok {
		t.Error("Expected ValidationError for negative hours")
	}
	if err := s.RemoveProductWorkshop(ctx, p.ID, "Раскроя"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound removing missing link, got %v", err)
	}
}

func TestMemoryStore_DictionariesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	names := []string{"Ламинат", "Дерево", "Ткань"}
	for _, n := range names {
		if err := s.PutMaterial(ctx, Material{Name: n, LossPercentage: 1}); err != nil {
			t.Fatalf("Failed to put material: %v", err)
		}
	}
	_ = s.PutMaterial(ctx, Material{Name: "Дерево", LossPercentage: 2})

	ms, _ := s.ListMaterials(ctx)
	if len(ms) != 3 {
		t.Fatalf("Expected 3 materials, got %d", len(ms))
	}
	for i, n := range names {
		if ms[i].Name != n {
			t.Errorf("Expected %s at %d, got %s", n, i, ms[i].Name)
		}
	}
	if ms[1].LossPercentage != 2 {
		t.Errorf("Expected upserted loss 2, got %v", ms[1].LossPercentage)
	}

	if err := s.PutMaterial(ctx, Material{Name: "Сталь", LossPercentage: 100}); err == nil {
		t.Error("Expected validation error for 100% loss")
	}
	if err := s.PutProductType(ctx, ProductType{Name: "T", Coefficient: 0}); err == nil {
		t.Error("Expected validation error for zero coefficient")
	}
	if err := s.PutWorkshop(ctx, Workshop{Name: "W", Employees: 0}); err == nil {
		t.Error("Expected validation error for zero employees")
	}
}
