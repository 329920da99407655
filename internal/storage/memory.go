package storage

import (
	"context"
	"sync"
)

// Ensure MemoryKV implements KV
var _ KV = (*MemoryKV)(nil)

// MemoryKV is an in-memory KV used for the session-lived scope: its contents
// vanish with the process, which is exactly the lifetime the session scope
// is defined to have. It also serves as the test double for the persistent
// scope. Safe for concurrent use.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Get returns the value for key and whether it was present.
func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

// Set stores value under key.
func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes key.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
