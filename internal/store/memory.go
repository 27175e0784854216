package store

import (
	"context"
	"sync"
)

// Memory keeps the list in process. Used by tests and by the SSH server when
// no store path is configured.
type Memory struct {
	mu    sync.Mutex
	items []ContentItem
	saved bool
	saves int
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load implements Store.
func (m *Memory) Load(ctx context.Context) ([]ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return nil, ErrNoItems
	}
	return Clone(m.items), nil
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, items []ContentItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = Clone(items)
	if m.items == nil {
		m.items = []ContentItem{}
	}
	m.saved = true
	m.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
