package catalog

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Spok95/production-planner/internal/infra/db"
)

// Запуск: PLANNER_TEST_DSN=postgres://... go test ./internal/domain/catalog/
func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	dsn := os.Getenv("PLANNER_TEST_DSN")
	if dsn == "" {
		t.Skip("PLANNER_TEST_DSN not set")
	}
	if err := db.Migrate(dsn); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `TRUNCATE product_workshops, products, workshops, materials, product_types RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("Failed to truncate: %v", err)
	}
	return NewRepo(pool)
}

func TestRepo_ProductLifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.PutProductType(ctx, ProductType{Name: "Гостиные", Coefficient: 3.5}); err != nil {
		t.Fatalf("Failed to put type: %v", err)
	}
	if err := r.PutMaterial(ctx, Material{Name: "Массив", LossPercentage: 0.8}); err != nil {
		t.Fatalf("Failed to put material: %v", err)
	}
	if err := r.PutWorkshop(ctx, Workshop{Name: "Сборочный", Type: "Сборка", Employees: 5}); err != nil {
		t.Fatalf("Failed to put workshop: %v", err)
	}

	p, err := r.CreateProduct(ctx, Draft{
		Name: "Диван", Article: 5050,
		MinPartnerCost:  decimal.RequireFromString("15000.555"),
		ProductTypeName: strPtr("Гостиные"),
	})
	if err != nil {
		t.Fatalf("Failed to create: %v", err)
	}
	if p.MinPartnerCost.String() != "15000.56" {
		t.Errorf("Expected cost rounded to 15000.56, got %s", p.MinPartnerCost)
	}

	if _, err := r.CreateProduct(ctx, Draft{Name: "X", ProductTypeName: strPtr("Нет")}); err == nil {
		t.Error("Expected validation error for unknown type")
	} else if ve, ok := IsValidation(err); !ok || ve.Violations["product_type_name"] != CodeUnknown {
		t.Errorf("Expected unknown product_type_name, got %v", err)
	}

	if err := r.SetProductWorkshop(ctx, p.ID, "Сборочный", 2.5); err != nil {
		t.Fatalf("Failed to link: %v", err)
	}
	if err := r.SetProductWorkshop(ctx, p.ID, "Покрасочный", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for workshop, got %v", err)
	}
	links, err := r.ListWorkshopsForProduct(ctx, p.ID)
	if err != nil || len(links) != 1 || links[0].Hours != 2.5 || links[0].Workshop.Employees != 5 {
		t.Errorf("Unexpected links %+v (%v)", links, err)
	}

	if err := r.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := r.GetProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if _, err := r.ListWorkshopsForProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for links after delete, got %v", err)
	}
	all, _ := r.ListProductWorkshops(ctx)
	if len(all) != 0 {
		t.Errorf("Expected links removed by cascade, got %+v", all)
	}
}
