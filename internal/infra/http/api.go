package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/Spok95/production-planner/internal/domain/catalog"
	"github.com/Spok95/production-planner/internal/domain/planning"
	"github.com/Spok95/production-planner/internal/infra/metrics"
	"github.com/Spok95/production-planner/internal/reports"
)

type API struct {
	store   catalog.Store
	planner *planning.Planner
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAPI(store catalog.Store, planner *planning.Planner, log *slog.Logger, m *metrics.Metrics) *API {
	return &API{store: store, planner: planner, log: log, metrics: m, now: time.Now}
}

func (a *API) Routes(r *mux.Router) {
	r.HandleFunc("/products", a.listProducts).Methods(http.MethodGet)
	r.HandleFunc("/products", a.createProduct).Methods(http.MethodPost)
	r.HandleFunc("/products/export.xlsx", a.exportProducts).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", a.getProduct).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", a.updateProduct).Methods(http.MethodPut)
	r.HandleFunc("/products/{id:[0-9]+}", a.deleteProduct).Methods(http.MethodDelete)
	r.HandleFunc("/products/{id:[0-9]+}/workshops", a.productWorkshops).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}/workshops/{workshop}", a.setProductWorkshop).Methods(http.MethodPut)
	r.HandleFunc("/products/{id:[0-9]+}/workshops/{workshop}", a.removeProductWorkshop).Methods(http.MethodDelete)
	r.HandleFunc("/products/{id:[0-9]+}/production_time", a.productionTime).Methods(http.MethodGet)

	r.HandleFunc("/product-types", a.productTypeNames).Methods(http.MethodGet)
	r.HandleFunc("/all-product-types", a.allProductTypes).Methods(http.MethodGet)
	r.HandleFunc("/materials", a.materialNames).Methods(http.MethodGet)
	r.HandleFunc("/all-materials", a.allMaterials).Methods(http.MethodGet)
	r.HandleFunc("/workshops", a.workshops).Methods(http.MethodGet)
	r.HandleFunc("/all-workshops", a.workshops).Methods(http.MethodGet)
	r.HandleFunc("/all-product-workshops", a.allProductWorkshops).Methods(http.MethodGet)
	r.HandleFunc("/product-workshops/{id:[0-9]+}", a.productWorkshopRows).Methods(http.MethodGet)

	r.HandleFunc("/calculate_raw_material", a.calculateRawMaterial).Methods(http.MethodPost)
}

/* DTO */

type ProductIn struct {
	Name             string          `json:"product_name"`
	Article          int64           `json:"article"`
	MinPartnerCost   decimal.Decimal `json:"min_partner_cost"`
	ProductTypeName  *string         `json:"product_type_name"`
	MainMaterialName *string         `json:"main_material_name"`
}

func (in ProductIn) draft() catalog.Draft {
	return catalog.Draft{
		Name:             in.Name,
		Article:          in.Article,
		MinPartnerCost:   in.MinPartnerCost,
		ProductTypeName:  in.ProductTypeName,
		MainMaterialName: in.MainMaterialName,
	}
}

type ProductOut struct {
	ID                  int64       `json:"product_id"`
	Name                string      `json:"product_name"`
	Article             int64       `json:"article"`
	MinPartnerCost      json.Number `json:"min_partner_cost"`
	ProductTypeName     *string     `json:"product_type_name"`
	MainMaterialName    *string     `json:"main_material_name"`
	TotalProductionTime float64     `json:"total_production_time"`
}

func productOut(p catalog.Product, total float64) ProductOut {
	return ProductOut{
		ID:                  p.ID,
		Name:                p.Name,
		Article:             p.Article,
		MinPartnerCost:      json.Number(p.MinPartnerCost.StringFixed(2)),
		ProductTypeName:     p.ProductTypeName,
		MainMaterialName:    p.MainMaterialName,
		TotalProductionTime: total,
	}
}

type workshopOut struct {
	Name      string `json:"workshop_name"`
	Type      string `json:"workshop_type"`
	Employees int    `json:"num_employees"`
}

type productWorkshopOut struct {
	workshopOut
	Hours float64 `json:"time_in_workshop"`
}

// productWorkshopRowOut часы в цехе отдаются под ключом coefficient,
// как их читает веб-клиент.
type productWorkshopRowOut struct {
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	WorkshopName string  `json:"workshop_name"`
	Hours        float64 `json:"coefficient"`
}

type productTypeNameOut struct {
	Name string `json:"product_type_name"`
}

type productTypeOut struct {
	Name        string  `json:"product_type_name"`
	Coefficient float64 `json:"type_coefficient"`
}

type materialNameOut struct {
	Name string `json:"material_name"`
}

type materialOut struct {
	Name           string  `json:"material_name"`
	LossPercentage float64 `json:"loss_percentage"`
}

type hoursIn struct {
	Hours *float64 `json:"hours"`
}

type rawMaterialIn struct {
	ProductTypeName string      `json:"product_type_name"`
	MaterialName    string      `json:"material_name"`
	Quantity        json.Number `json:"quantity"`
	Param1          float64     `json:"param1"`
	Param2          float64     `json:"param2"`
}

// quantity целое; "10.0" тоже принимается. Пусто — 0.
func (in rawMaterialIn) quantity() (int64, error) {
	if in.Quantity == "" {
		return 0, nil
	}
	if v, err := in.Quantity.Int64(); err == nil {
		return v, nil
	}
	f, err := in.Quantity.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("quantity must be a whole number, got %s", in.Quantity)
	}
	return int64(f), nil
}

/* Products */

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.store.ListProducts(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sums, err := a.planner.Summaries(r.Context(), products)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]ProductOut, 0, len(sums))
	for _, s := range sums {
		out = append(out, productOut(s.Product, s.TotalProductionTime))
	}
	JSON(w, http.StatusOK, out)
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := a.store.GetProduct(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respondProduct(w, r, http.StatusOK, p)
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductIn
	if !decode(w, r, &in) {
		return
	}
	p, err := a.store.CreateProduct(r.Context(), in.draft())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.log.Info("product created", "product_id", p.ID)
	a.respondProduct(w, r, http.StatusCreated, p)
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in ProductIn
	if !decode(w, r, &in) {
		return
	}
	p, err := a.store.UpdateProduct(r.Context(), id, in.draft())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respondProduct(w, r, http.StatusOK, p)
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.store.DeleteProduct(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.log.Info("product deleted", "product_id", id)
	JSON(w, http.StatusOK, map[string]string{"detail": "Product deleted"})
}

func (a *API) exportProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.store.ListProducts(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sums, err := a.planner.Summaries(r.Context(), products)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	data, err := reports.ProductsXLSX(sums)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, reports.ProductsFileName(a.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// respondProduct продукт вместе с текущим временем изготовления.
func (a *API) respondProduct(w http.ResponseWriter, r *http.Request, status int, p *catalog.Product) {
	total, err := a.planner.ProductionTime(r.Context(), p.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	JSON(w, status, productOut(*p, total))
}

/* Product ↔ Workshop */

func (a *API) productWorkshops(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	links, err := a.store.ListWorkshopsForProduct(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]productWorkshopOut, 0, len(links))
	for _, l := range links {
		out = append(out, productWorkshopOut{workshopOut: toWorkshopOut(l.Workshop), Hours: l.Hours})
	}
	JSON(w, http.StatusOK, out)
}

func (a *API) setProductWorkshop(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in hoursIn
	if !decode(w, r, &in) {
		return
	}
	if in.Hours == nil {
		JSONError(w, http.StatusUnprocessableEntity, ErrCodeValidation, catalog.Violations{"hours": catalog.CodeRequired})
		return
	}
	workshop := mux.Vars(r)["workshop"]
	if err := a.store.SetProductWorkshop(r.Context(), id, workshop, *in.Hours); err != nil {
		a.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, productWorkshopRowOut{ProductID: id, WorkshopName: workshop, Hours: *in.Hours})
}

func (a *API) removeProductWorkshop(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.store.RemoveProductWorkshop(r.Context(), id, mux.Vars(r)["workshop"]); err != nil {
		a.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"detail": "Association deleted"})
}

func (a *API) productWorkshopRows(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rows, err := a.store.ListProductWorkshopsByProduct(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toRowsOut(rows))
}

func (a *API) allProductWorkshops(w http.ResponseWriter, r *http.Request) {
	rows, err := a.store.ListProductWorkshops(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toRowsOut(rows))
}

/* Dictionaries */

func (a *API) productTypeNames(w http.ResponseWriter, r *http.Request) {
	types, err := a.store.ListProductTypes(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]productTypeNameOut, 0, len(types))
	for _, t := range types {
		out = append(out, productTypeNameOut{Name: t.Name})
	}
	JSON(w, http.StatusOK, out)
}

func (a *API) allProductTypes(w http.ResponseWriter, r *http.Request) {
	types, err := a.store.ListProductTypes(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]productTypeOut, 0, len(types))
	for _, t := range types {
		out = append(out, productTypeOut{Name: t.Name, Coefficient: t.Coefficient})
	}
	JSON(w, http.StatusOK, out)
}

func (a *API) materialNames(w http.ResponseWriter, r *http.Request) {
	ms, err := a.store.ListMaterials(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]materialNameOut, 0, len(ms))
	for _, m := range ms {
		out = append(out, materialNameOut{Name: m.Name})
	}
	JSON(w, http.StatusOK, out)
}

func (a *API) allMaterials(w http.ResponseWriter, r *http.Request) {
	ms, err := a.store.ListMaterials(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]materialOut, 0, len(ms))
	for _, m := range ms {
		out = append(out, materialOut{Name: m.Name, LossPercentage: m.LossPercentage})
	}
	JSON(w, http.StatusOK, out)
}

func (a *API) workshops(w http.ResponseWriter, r *http.Request) {
	ws, err := a.store.ListWorkshops(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]workshopOut, 0, len(ws))
	for _, item := range ws {
		out = append(out, toWorkshopOut(item))
	}
	JSON(w, http.StatusOK, out)
}

/* Calculations */

func (a *API) productionTime(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	total, err := a.planner.ProductionTime(r.Context(), id)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		a.metrics.Calc(metrics.CalcProductionTime, metrics.OutcomeNotFound)
	case err != nil:
		a.metrics.Calc(metrics.CalcProductionTime, metrics.OutcomeError)
	default:
		a.metrics.Calc(metrics.CalcProductionTime, metrics.OutcomeOK)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"product_id": id, "total_production_time": total})
}

func (a *API) calculateRawMaterial(w http.ResponseWriter, r *http.Request) {
	var in rawMaterialIn
	if !decode(w, r, &in) {
		return
	}
	qty, err := in.quantity()
	if err != nil {
		JSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	v, err := a.planner.RawMaterial(r.Context(), planning.RawMaterialRequest{
		ProductTypeName: in.ProductTypeName,
		MaterialName:    in.MaterialName,
		Quantity:        qty,
		Param1:          in.Param1,
		Param2:          in.Param2,
	})
	if err != nil {
		a.metrics.Calc(metrics.CalcRawMaterial, metrics.OutcomeError)
		a.fail(w, r, err)
		return
	}
	if v == planning.InvalidCalculation {
		a.metrics.Calc(metrics.CalcRawMaterial, metrics.OutcomeInvalid)
	} else {
		a.metrics.Calc(metrics.CalcRawMaterial, metrics.OutcomeOK)
	}
	JSON(w, http.StatusOK, map[string]float64{"required_raw_material": v})
}

/* helpers */

func toWorkshopOut(w catalog.Workshop) workshopOut {
	return workshopOut{Name: w.Name, Type: w.Type, Employees: w.Employees}
}

func toRowsOut(rows []catalog.ProductWorkshopRow) []productWorkshopRowOut {
	out := make([]productWorkshopRowOut, 0, len(rows))
	for _, pw := range rows {
		out = append(out, productWorkshopRowOut{
			ProductID:    pw.ProductID,
			ProductName:  pw.ProductName,
			WorkshopName: pw.WorkshopName,
			Hours:        pw.Hours,
		})
	}
	return out
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		JSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		JSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return false
	}
	return true
}

// fail переводит ошибки каталога в ответ. Всё, что не not found и не
// валидация, логируется и отдаётся как 500 без подробностей.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := catalog.IsValidation(err); ok {
		JSONError(w, http.StatusUnprocessableEntity, ErrCodeValidation, ve.Violations)
		return
	}
	if errors.Is(err, catalog.ErrNotFound) {
		JSONError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	}
	a.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	JSONError(w, http.StatusInternalServerError, ErrCodeInternal, nil)
}
