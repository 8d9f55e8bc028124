package bot

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Spok95/production-planner/internal/domain/planning"
)

var errRawArgs = errors.New("ожидается: тип; материал; количество; param1; param2")

// parseNumber принимает и "1,5", и "1.5".
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

func parseQuantity(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

// parseRawArgs разбирает аргументы "/raw Тип; Материал; 10; 1,5; 2".
func parseRawArgs(args string) (planning.RawMaterialRequest, error) {
	parts := strings.Split(args, ";")
	if len(parts) != 5 {
		return planning.RawMaterialRequest{}, errRawArgs
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" || parts[1] == "" {
		return planning.RawMaterialRequest{}, errRawArgs
	}
	qty, err := parseQuantity(parts[2])
	if err != nil {
		return planning.RawMaterialRequest{}, errRawArgs
	}
	p1, err := parseNumber(parts[3])
	if err != nil {
		return planning.RawMaterialRequest{}, errRawArgs
	}
	p2, err := parseNumber(parts[4])
	if err != nil {
		return planning.RawMaterialRequest{}, errRawArgs
	}
	return planning.RawMaterialRequest{
		ProductTypeName: parts[0],
		MaterialName:    parts[1],
		Quantity:        qty,
		Param1:          p1,
		Param2:          p2,
	}, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
