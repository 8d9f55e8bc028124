package catalog

import "github.com/shopspring/decimal"

type Product struct {
	ID               int64
	Name             string
	Article          int64
	MinPartnerCost   decimal.Decimal // 2 знака после запятой
	ProductTypeName  *string
	MainMaterialName *string
}

// Draft — поля продукта, которые присылает форма добавления/редактирования.
// Отсутствующие ссылки приходят как nil и при редактировании затирают старые.
type Draft struct {
	Name             string
	Article          int64
	MinPartnerCost   decimal.Decimal
	ProductTypeName  *string
	MainMaterialName *string
}

type ProductType struct {
	Name        string
	Coefficient float64
}

type Material struct {
	Name           string
	LossPercentage float64 // [0,100)
}

type Workshop struct {
	Name      string
	Type      string
	Employees int
}

// ProductWorkshop связь продукта с цехом: часы обработки единицы продукта в цехе.
type ProductWorkshop struct {
	ProductID    int64
	WorkshopName string
	Hours        float64
}

type WorkshopHours struct {
	Workshop Workshop
	Hours    float64
}

// ProductWorkshopRow та же связь, но с именем продукта (для отображения).
type ProductWorkshopRow struct {
	ProductID    int64
	ProductName  string
	WorkshopName string
	Hours        float64
}

func (d Draft) product(id int64) Product {
	return Product{
		ID:               id,
		Name:             d.Name,
		Article:          d.Article,
		MinPartnerCost:   d.MinPartnerCost.Round(2),
		ProductTypeName:  cloneName(d.ProductTypeName),
		MainMaterialName: cloneName(d.MainMaterialName),
	}
}

func cloneName(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
