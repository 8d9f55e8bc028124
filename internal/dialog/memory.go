package dialog

import (
	"context"
	"sync"
)

// MemoryRepo для storage.driver=memory и тестов.
type MemoryRepo struct {
	mu    sync.Mutex
	items map[int64]Item
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{items: make(map[int64]Item)} }

var _ Store = (*MemoryRepo)(nil)

func (r *MemoryRepo) Get(_ context.Context, chatID int64) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[chatID]
	if !ok {
		return &Item{ChatID: chatID, State: StateIdle, Payload: Payload{}}, nil
	}
	return &Item{ChatID: chatID, State: it.State, Payload: it.Payload.clone()}, nil
}

func (r *MemoryRepo) Set(_ context.Context, chatID int64, state State, payload Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[chatID] = Item{ChatID: chatID, State: state, Payload: payload.clone()}
	return nil
}

func (r *MemoryRepo) Reset(_ context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, chatID)
	return nil
}
