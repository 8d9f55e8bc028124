package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// Коды нарушений
const (
	CodeRequired    = "required"
	CodeNonNegative = "must_be_non_negative"
	CodePositive    = "must_be_positive"
	CodeOutOfRange  = "out_of_range"
	CodeUnknown     = "unknown"
)

// Violations поле -> код нарушения.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

type ValidationError struct {
	Violations Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.Violations[f])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// IsValidation проверяет, что err — ошибка валидации, и возвращает её.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func (v Violations) err() error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

func required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = CodeRequired
	}
}

func positive(field string, val float64, v Violations) {
	if math.IsNaN(val) || math.IsInf(val, 0) || val <= 0 {
		v[field] = CodePositive
	}
}

func nonNegative(field string, val float64, v Violations) {
	if math.IsNaN(val) || math.IsInf(val, 0) || val < 0 {
		v[field] = CodeNonNegative
	}
}

// Validate проверяет поля продукта без обращения к хранилищу.
func (d Draft) Validate() error {
	v := make(Violations)
	required("product_name", d.Name, v)
	if d.Article < 0 {
		v["article"] = CodeNonNegative
	}
	if d.MinPartnerCost.LessThan(decimal.Zero) {
		v["min_partner_cost"] = CodeNonNegative
	}
	return v.err()
}

func (t ProductType) Validate() error {
	v := make(Violations)
	required("product_type_name", t.Name, v)
	positive("type_coefficient", t.Coefficient, v)
	return v.err()
}

func (m Material) Validate() error {
	v := make(Violations)
	required("material_name", m.Name, v)
	if math.IsNaN(m.LossPercentage) || m.LossPercentage < 0 || m.LossPercentage >= 100 {
		v["loss_percentage"] = CodeOutOfRange
	}
	return v.err()
}

func (w Workshop) Validate() error {
	v := make(Violations)
	required("workshop_name", w.Name, v)
	if w.Employees <= 0 {
		v["num_employees"] = CodePositive
	}
	return v.err()
}

func validateHours(hours float64) error {
	v := make(Violations)
	nonNegative("hours", hours, v)
	return v.err()
}

func productNotFound(id int64) error {
	return fmt.Errorf("product %d: %w", id, ErrNotFound)
}

func workshopNotFound(name string) error {
	return fmt.Errorf("workshop %q: %w", name, ErrNotFound)
}
