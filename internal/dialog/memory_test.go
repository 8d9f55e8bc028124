package dialog

import (
	"context"
	"testing"
)

func TestMemoryRepo_DefaultsToIdle(t *testing.T) {
	it, err := NewMemoryRepo().Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if it.State != StateIdle || len(it.Payload) != 0 {
		t.Errorf("Expected idle with empty payload, got %+v", it)
	}
}

func TestMemoryRepo_SetGetReset(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	p := Payload{KeyProductType: "Гостиные"}
	if err := r.Set(ctx, 1, StateRawPickMaterial, p); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	p[KeyMaterial] = "mutated"

	it, _ := r.Get(ctx, 1)
	if it.State != StateRawPickMaterial {
		t.Errorf("Expected %s, got %s", StateRawPickMaterial, it.State)
	}
	if _, ok := it.Payload[KeyMaterial]; ok {
		t.Error("Stored payload must not alias the caller's map")
	}
	if v, ok := GetString(it.Payload, KeyProductType); !ok || v != "Гостиные" {
		t.Errorf("Expected product type, got %q", v)
	}

	if err := r.Reset(ctx, 1); err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}
	if it, _ := r.Get(ctx, 1); it.State != StateIdle {
		t.Errorf("Expected idle after reset, got %s", it.State)
	}
}

func TestPayloadHelpers(t *testing.T) {
	base := Payload{KeyQuantity: float64(10)}
	next := base.With(KeyParam1, 1.5)

	if _, ok := base[KeyParam1]; ok {
		t.Error("With must not modify the receiver")
	}
	if v, ok := GetFloat(next, KeyQuantity); !ok || v != 10 {
		t.Errorf("Expected 10, got %v", v)
	}
	if v, ok := GetFloat(Payload{KeyQuantity: int64(3)}, KeyQuantity); !ok || v != 3 {
		t.Errorf("Expected 3, got %v", v)
	}
	if _, ok := GetFloat(next, KeyMaterial); ok {
		t.Error("Expected missing key to report false")
	}
	if _, ok := GetString(Payload{KeyMaterial: 5}, KeyMaterial); ok {
		t.Error("Expected non-string value to report false")
	}
}
