package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Имена ограничений из migrations/00001_catalog.sql
const (
	fkProductType     = "products_product_type_fk"
	fkMainMaterial    = "products_main_material_fk"
	fkLinkProduct     = "product_workshops_product_fk"
	fkLinkWorkshop    = "product_workshops_workshop_fk"
	pgForeignKeyError = "23503"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

var _ Store = (*Repo)(nil)

/* Products */

const productColumns = `id, name, article, min_partner_cost::text, product_type_name, main_material_name`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p    Product
		cost string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Article, &cost, &p.ProductTypeName, &p.MainMaterialName); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(cost)
	if err != nil {
		return nil, fmt.Errorf("product %d: min_partner_cost %q: %w", p.ID, cost, err)
	}
	p.MinPartnerCost = d
	return &p, nil
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, productNotFound(id)
	}
	return p, err
}

func (r *Repo) CreateProduct(ctx context.Context, d Draft) (*Product, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, article, min_partner_cost, product_type_name, main_material_name)
		VALUES ($1, $2, $3::numeric, $4, $5)
		RETURNING `+productColumns,
		d.Name, d.Article, d.MinPartnerCost.StringFixed(2), d.ProductTypeName, d.MainMaterialName)
	p, err := scanProduct(row)
	if err != nil {
		return nil, mapPgError(err)
	}
	return p, nil
}

func (r *Repo) UpdateProduct(ctx context.Context, id int64, d Draft) (*Product, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $2, article = $3, min_partner_cost = $4::numeric,
		    product_type_name = $5, main_material_name = $6
		WHERE id = $1
		RETURNING `+productColumns,
		id, d.Name, d.Article, d.MinPartnerCost.StringFixed(2), d.ProductTypeName, d.MainMaterialName)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, productNotFound(id)
	}
	if err != nil {
		return nil, mapPgError(err)
	}
	return p, nil
}

// DeleteProduct связи с цехами удаляются каскадом (product_workshops_product_fk).
func (r *Repo) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return productNotFound(id)
	}
	return nil
}

/* Dictionaries */

func (r *Repo) ListProductTypes(ctx context.Context) ([]ProductType, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, type_coefficient FROM product_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProductType
	for rows.Next() {
		var t ProductType
		if err := rows.Scan(&t.Name, &t.Coefficient); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) GetProductType(ctx context.Context, name string) (*ProductType, error) {
	var t ProductType
	err := r.pool.QueryRow(ctx, `SELECT name, type_coefficient FROM product_types WHERE name = $1`, name).
		Scan(&t.Name, &t.Coefficient)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product type %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) PutProductType(ctx context.Context, t ProductType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO product_types (name, type_coefficient) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET type_coefficient = EXCLUDED.type_coefficient
	`, t.Name, t.Coefficient)
	return err
}

func (r *Repo) ListMaterials(ctx context.Context) ([]Material, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, loss_percentage FROM materials ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.Name, &m.LossPercentage); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) GetMaterial(ctx context.Context, name string) (*Material, error) {
	var m Material
	err := r.pool.QueryRow(ctx, `SELECT name, loss_percentage FROM materials WHERE name = $1`, name).
		Scan(&m.Name, &m.LossPercentage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("material %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) PutMaterial(ctx context.Context, m Material) error {
	if err := m.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO materials (name, loss_percentage) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET loss_percentage = EXCLUDED.loss_percentage
	`, m.Name, m.LossPercentage)
	return err
}

func (r *Repo) ListWorkshops(ctx context.Context) ([]Workshop, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, workshop_type, num_employees FROM workshops ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Workshop
	for rows.Next() {
		var w Workshop
		if err := rows.Scan(&w.Name, &w.Type, &w.Employees); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *Repo) PutWorkshop(ctx context.Context, w Workshop) error {
	if err := w.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO workshops (name, workshop_type, num_employees) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET workshop_type = EXCLUDED.workshop_type,
		                                 num_employees = EXCLUDED.num_employees
	`, w.Name, w.Type, w.Employees)
	return err
}

/* Product ↔ Workshop */

func (r *Repo) productName(ctx context.Context, id int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM products WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", productNotFound(id)
	}
	return name, err
}

func (r *Repo) ListWorkshopsForProduct(ctx context.Context, productID int64) ([]WorkshopHours, error) {
	if _, err := r.productName(ctx, productID); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT w.name, w.workshop_type, w.num_employees, pw.hours
		FROM product_workshops pw
		JOIN workshops w ON w.name = pw.workshop_name
		WHERE pw.product_id = $1
		ORDER BY pw.seq
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []WorkshopHours{}
	for rows.Next() {
		var wh WorkshopHours
		if err := rows.Scan(&wh.Workshop.Name, &wh.Workshop.Type, &wh.Workshop.Employees, &wh.Hours); err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	return out, rows.Err()
}

func (r *Repo) ListProductWorkshopsByProduct(ctx context.Context, productID int64) ([]ProductWorkshopRow, error) {
	if _, err := r.productName(ctx, productID); err != nil {
		return nil, err
	}
	return r.queryLinks(ctx, `WHERE pw.product_id = $1`, productID)
}

func (r *Repo) ListProductWorkshops(ctx context.Context) ([]ProductWorkshopRow, error) {
	return r.queryLinks(ctx, ``)
}

func (r *Repo) queryLinks(ctx context.Context, where string, args ...any) ([]ProductWorkshopRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pw.product_id, p.name, pw.workshop_name, pw.hours
		FROM product_workshops pw
		JOIN products p ON p.id = pw.product_id
		`+where+`
		ORDER BY pw.seq
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ProductWorkshopRow{}
	for rows.Next() {
		var pw ProductWorkshopRow
		if err := rows.Scan(&pw.ProductID, &pw.ProductName, &pw.WorkshopName, &pw.Hours); err != nil {
			return nil, err
		}
		out = append(out, pw)
	}
	return out, rows.Err()
}

func (r *Repo) SetProductWorkshop(ctx context.Context, productID int64, workshopName string, hours float64) error {
	if err := validateHours(hours); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO product_workshops (product_id, workshop_name, hours) VALUES ($1, $2, $3)
		ON CONFLICT (product_id, workshop_name) DO UPDATE SET hours = EXCLUDED.hours
	`, productID, workshopName, hours)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyError {
		switch pgErr.ConstraintName {
		case fkLinkProduct:
			return productNotFound(productID)
		case fkLinkWorkshop:
			return workshopNotFound(workshopName)
		}
	}
	return err
}

func (r *Repo) RemoveProductWorkshop(ctx context.Context, productID int64, workshopName string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM product_workshops WHERE product_id = $1 AND workshop_name = $2`,
		productID, workshopName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d in workshop %q: %w", productID, workshopName, ErrNotFound)
	}
	return nil
}

// mapPgError переводит нарушение внешнего ключа products в ValidationError.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgForeignKeyError {
		return err
	}
	switch pgErr.ConstraintName {
	case fkProductType:
		return &ValidationError{Violations: Violations{"product_type_name": CodeUnknown}}
	case fkMainMaterial:
		return &ValidationError{Violations: Violations{"main_material_name": CodeUnknown}}
	}
	return err
}
