// Package importer загружает справочники и продукцию из CSV-выгрузок
// (разделитель ";", заголовки на русском, дробная часть через запятую).
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Spok95/production-planner/internal/domain/catalog"
)

const (
	FileProductTypes     = "Product_type_import.csv"
	FileMaterials        = "Material_type_import.csv"
	FileWorkshops        = "Workshops_import.csv"
	FileProducts         = "Products_import.csv"
	FileProductWorkshops = "Product_workshops_import.csv"
)

const (
	colProductType   = "Тип продукции"
	colTypeCoef      = "Коэффициент типа продукции"
	colMaterial      = "Тип материала"
	colLoss          = "Процент потерь сырья"
	colWorkshop      = "Название цеха"
	colWorkshopType  = "Тип цеха"
	colEmployees     = "Количество человек для производства"
	colProductName   = "Наименование продукции"
	colArticle       = "Артикул"
	colMinCost       = "Минимальная стоимость для партнера"
	colMainMaterial  = "Основной материал"
	colWorkshopHours = "Время изготовления, ч"
)

// TableSummary итог по одному файлу.
type TableSummary struct {
	File    string
	Loaded  int
	Skipped int
	Missing bool
}

type Summary struct {
	ProductTypes     TableSummary
	Materials        TableSummary
	Workshops        TableSummary
	Products         TableSummary
	ProductWorkshops TableSummary
}

func (s Summary) Tables() []TableSummary {
	return []TableSummary{s.ProductTypes, s.Materials, s.Workshops, s.Products, s.ProductWorkshops}
}

type Importer struct {
	store catalog.Store
	log   *slog.Logger
}

func New(store catalog.Store, log *slog.Logger) *Importer {
	return &Importer{store: store, log: log}
}

// Run загружает все пять файлов из dir в порядке зависимостей.
// Отсутствующий файл пропускается, ошибка хранилища прерывает загрузку.
func (im *Importer) Run(ctx context.Context, dir string) (Summary, error) {
	var (
		s   Summary
		err error
	)
	if s.ProductTypes, err = im.load(ctx, dir, FileProductTypes, im.productType); err != nil {
		return s, err
	}
	if s.Materials, err = im.load(ctx, dir, FileMaterials, im.material); err != nil {
		return s, err
	}
	if s.Workshops, err = im.load(ctx, dir, FileWorkshops, im.workshop); err != nil {
		return s, err
	}

	existing, err := im.store.ListProducts(ctx)
	if err != nil {
		return s, err
	}
	byName := make(map[string]int64, len(existing))
	byArticle := make(map[int64]bool, len(existing))
	for _, p := range existing {
		if _, ok := byName[p.Name]; !ok {
			byName[p.Name] = p.ID
		}
		byArticle[p.Article] = true
	}

	if s.Products, err = im.load(ctx, dir, FileProducts, im.product(byName, byArticle)); err != nil {
		return s, err
	}
	if s.ProductWorkshops, err = im.load(ctx, dir, FileProductWorkshops, im.productWorkshop(byName)); err != nil {
		return s, err
	}
	return s, nil
}

// rowFunc возвращает ok=false, если строку надо пропустить.
type rowFunc func(ctx context.Context, r row) (ok bool, err error)

func (im *Importer) load(ctx context.Context, dir, name string, fn rowFunc) (TableSummary, error) {
	ts := TableSummary{File: name}
	f, err := os.Open(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		im.log.Warn("import file not found", "file", name)
		ts.Missing = true
		return ts, nil
	}
	if err != nil {
		return ts, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := readRows(f)
	if err != nil {
		return ts, fmt.Errorf("read %s: %w", name, err)
	}
	for _, r := range rows {
		ok, err := fn(ctx, r)
		if err != nil {
			return ts, fmt.Errorf("%s line %d: %w", name, r.line, err)
		}
		if ok {
			ts.Loaded++
		} else {
			ts.Skipped++
			im.log.Debug("import row skipped", "file", name, "line", r.line)
		}
	}
	im.log.Info("import file loaded", "file", name, "loaded", ts.Loaded, "skipped", ts.Skipped)
	return ts, nil
}

/* rows */

func (im *Importer) productType(ctx context.Context, r row) (bool, error) {
	name := r.get(colProductType)
	coef, ok := parseNumber(r.get(colTypeCoef))
	if name == "" || !ok {
		return false, nil
	}
	return im.put(im.store.PutProductType(ctx, catalog.ProductType{Name: name, Coefficient: coef}))
}

func (im *Importer) material(ctx context.Context, r row) (bool, error) {
	name := r.get(colMaterial)
	loss, ok := parseNumber(r.get(colLoss))
	if name == "" || !ok {
		return false, nil
	}
	return im.put(im.store.PutMaterial(ctx, catalog.Material{Name: name, LossPercentage: loss}))
}

func (im *Importer) workshop(ctx context.Context, r row) (bool, error) {
	name := r.get(colWorkshop)
	employees, ok := parseInt(r.get(colEmployees))
	if name == "" || !ok {
		return false, nil
	}
	return im.put(im.store.PutWorkshop(ctx, catalog.Workshop{
		Name:      name,
		Type:      r.get(colWorkshopType),
		Employees: int(employees),
	}))
}

// product повторная загрузка того же файла не плодит дубликаты: строка
// с уже известным артикулом пропускается.
func (im *Importer) product(byName map[string]int64, byArticle map[int64]bool) rowFunc {
	return func(ctx context.Context, r row) (bool, error) {
		name := r.get(colProductName)
		article, okArticle := parseInt(r.get(colArticle))
		cost, okCost := parseDecimal(r.get(colMinCost))
		if name == "" || !okArticle || !okCost || byArticle[article] {
			return false, nil
		}
		p, err := im.store.CreateProduct(ctx, catalog.Draft{
			Name:             name,
			Article:          article,
			MinPartnerCost:   cost,
			ProductTypeName:  optional(r.get(colProductType)),
			MainMaterialName: optional(r.get(colMainMaterial)),
		})
		if ok, err := im.put(err); !ok || err != nil {
			return ok, err
		}
		byArticle[article] = true
		if _, dup := byName[name]; !dup {
			byName[name] = p.ID
		}
		return true, nil
	}
}

func (im *Importer) productWorkshop(byName map[string]int64) rowFunc {
	return func(ctx context.Context, r row) (bool, error) {
		id, known := byName[r.get(colProductName)]
		workshop := r.get(colWorkshop)
		hours, ok := parseNumber(r.get(colWorkshopHours))
		if !known || workshop == "" || !ok {
			return false, nil
		}
		err := im.store.SetProductWorkshop(ctx, id, workshop, hours)
		if errors.Is(err, catalog.ErrNotFound) {
			return false, nil
		}
		return im.put(err)
	}
}

// put ошибки валидации превращает в пропуск строки, остальные пробрасывает.
func (im *Importer) put(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if _, ok := catalog.IsValidation(err); ok {
		return false, nil
	}
	return false, err
}

/* csv */

type row struct {
	line   int
	cols   map[string]int
	values []string
}

func (r row) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func readRows(rd io.Reader) ([]row, error) {
	cr := csv.NewReader(rd)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		cols[h] = i
	}

	var out []row
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if blank(rec) {
			continue
		}
		out = append(out, row{line: line, cols: cols, values: rec})
	}
	return out, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

/* numbers */

// normalize "0,80%" -> "0.80", "15 000,50" -> "15000.50".
func normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.NewReplacer(",", ".", " ", "", "\u00a0", "").Replace(s)
	return s
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(normalize(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(normalize(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseInt допускает запись вида "5.0", но не дробные значения.
func parseInt(s string) (int64, bool) {
	n := normalize(s)
	if v, err := strconv.ParseInt(n, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(n, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
