// Package planning считает производные показатели по данным каталога:
// общее время изготовления продукта и потребность в сырье на партию.
// Результаты не кэшируются, каждый вызов читает текущее состояние каталога.
package planning

import (
	"context"
	"errors"
	"math"

	"github.com/Spok95/production-planner/internal/domain/catalog"
)

// InvalidCalculation возвращается RawMaterial вместо ошибки, когда входные
// данные не позволяют получить число.
const InvalidCalculation = -1.0

// Catalog — то, что планировщику нужно от хранилища.
type Catalog interface {
	ListWorkshopsForProduct(ctx context.Context, productID int64) ([]catalog.WorkshopHours, error)
	GetProductType(ctx context.Context, name string) (*catalog.ProductType, error)
	GetMaterial(ctx context.Context, name string) (*catalog.Material, error)
}

type Planner struct {
	catalog Catalog
}

func NewPlanner(c Catalog) *Planner { return &Planner{catalog: c} }

// ProductionTime сумма часов по всем цехам продукта. Нет цехов — 0.
// Для несуществующего продукта — catalog.ErrNotFound.
func (p *Planner) ProductionTime(ctx context.Context, productID int64) (float64, error) {
	links, err := p.catalog.ListWorkshopsForProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return TotalHours(links), nil
}

func TotalHours(links []catalog.WorkshopHours) float64 {
	var total float64
	for _, l := range links {
		total += l.Hours
	}
	return total
}

type RawMaterialRequest struct {
	ProductTypeName string
	MaterialName    string
	Quantity        int64
	Param1          float64
	Param2          float64
}

// RawMaterial потребность в сырье на партию. Неизвестный тип/материал или
// недопустимые параметры дают InvalidCalculation без ошибки; ошибка
// возвращается только при сбое хранилища.
func (p *Planner) RawMaterial(ctx context.Context, req RawMaterialRequest) (float64, error) {
	if !validBatch(req.Quantity, req.Param1, req.Param2) {
		return InvalidCalculation, nil
	}

	pt, err := p.catalog.GetProductType(ctx, req.ProductTypeName)
	if errors.Is(err, catalog.ErrNotFound) {
		return InvalidCalculation, nil
	}
	if err != nil {
		return 0, err
	}

	m, err := p.catalog.GetMaterial(ctx, req.MaterialName)
	if errors.Is(err, catalog.ErrNotFound) {
		return InvalidCalculation, nil
	}
	if err != nil {
		return 0, err
	}

	return RequiredRawMaterial(pt.Coefficient, m.LossPercentage, req.Quantity, req.Param1, req.Param2), nil
}

// RequiredRawMaterial
//
//	quantity * param1 * param2 * coefficient / (1 - loss/100)
//
// Номинальный расход делится на долю материала, остающуюся после обработки.
func RequiredRawMaterial(coefficient, lossPercentage float64, quantity int64, param1, param2 float64) float64 {
	if !validBatch(quantity, param1, param2) {
		return InvalidCalculation
	}
	if !finite(coefficient) || coefficient <= 0 {
		return InvalidCalculation
	}
	if !finite(lossPercentage) || lossPercentage < 0 || lossPercentage >= 100 {
		return InvalidCalculation
	}

	nominal := float64(quantity) * param1 * param2 * coefficient
	required := nominal / (1 - lossPercentage/100)
	if !finite(required) {
		return InvalidCalculation
	}
	return required
}

func validBatch(quantity int64, param1, param2 float64) bool {
	return quantity >= 0 &&
		finite(param1) && param1 > 0 &&
		finite(param2) && param2 > 0
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ProductSummary продукт вместе с текущим временем изготовления (для списков и отчётов).
type ProductSummary struct {
	catalog.Product
	TotalProductionTime float64
}

func (p *Planner) Summaries(ctx context.Context, products []catalog.Product) ([]ProductSummary, error) {
	out := make([]ProductSummary, 0, len(products))
	for _, pr := range products {
		total, err := p.ProductionTime(ctx, pr.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ProductSummary{Product: pr, TotalProductionTime: total})
	}
	return out, nil
}
