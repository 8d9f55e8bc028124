package catalog

import "context"

// Store — хранилище каталога. Реализации: Repo (Postgres) и MemoryStore.
type Store interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, d Draft) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, d Draft) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListProductTypes(ctx context.Context) ([]ProductType, error)
	GetProductType(ctx context.Context, name string) (*ProductType, error)
	PutProductType(ctx context.Context, t ProductType) error

	ListMaterials(ctx context.Context) ([]Material, error)
	GetMaterial(ctx context.Context, name string) (*Material, error)
	PutMaterial(ctx context.Context, m Material) error

	ListWorkshops(ctx context.Context) ([]Workshop, error)
	PutWorkshop(ctx context.Context, w Workshop) error

	ListWorkshopsForProduct(ctx context.Context, productID int64) ([]WorkshopHours, error)
	ListProductWorkshopsByProduct(ctx context.Context, productID int64) ([]ProductWorkshopRow, error)
	ListProductWorkshops(ctx context.Context) ([]ProductWorkshopRow, error)
	SetProductWorkshop(ctx context.Context, productID int64, workshopName string, hours float64) error
	RemoveProductWorkshop(ctx context.Context, productID int64, workshopName string) error
}
