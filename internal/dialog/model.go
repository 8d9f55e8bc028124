package dialog

import "context"

type State string

const (
	StateIdle State = "idle"

	// Мастер расчёта сырья
	StateRawPickType     State = "raw_pick_type"
	StateRawPickMaterial State = "raw_pick_material"
	StateRawQty          State = "raw_qty"    // ввод количества (целое)
	StateRawParam1       State = "raw_param1" // ввод param1 (> 0)
	StateRawParam2       State = "raw_param2" // ввод param2 (> 0), затем результат
)

// Ключи payload мастера
const (
	KeyProductType = "product_type"
	KeyMaterial    = "material"
	KeyQuantity    = "quantity"
	KeyParam1      = "param1"
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}

// Store состояние диалога по чату. Нет записи — StateIdle с пустым payload.
type Store interface {
	Get(ctx context.Context, chatID int64) (*Item, error)
	Set(ctx context.Context, chatID int64, state State, payload Payload) error
	Reset(ctx context.Context, chatID int64) error
}

// GetString Helper для безопасного чтения строк из payload
func GetString(p Payload, key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetFloat числа после JSONB приходят как float64, из памяти — как есть.
func GetFloat(p Payload, key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// With копия payload с добавленным ключом.
func (p Payload) With(key string, v any) Payload {
	out := p.clone()
	out[key] = v
	return out
}

func (p Payload) clone() Payload {
	out := make(Payload, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}
