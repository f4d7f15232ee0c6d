package storage

import (
	"context"
	"sync"
)

// memory keeps preferences for the lifetime of the process.
type memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory creates a new in-memory storage implementation.
func NewMemory() Store {
	return &memory{values: make(map[string][]byte)}
}

func (m *memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memory) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *memory) Close() error { return nil }
