package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store. It backs tests and serves as the
// best-effort fallback when the configured backend is unreachable.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]map[string][]byte),
	}
}

func (m *MemoryStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.buckets[bucket][key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *MemoryStore) Put(_ context.Context, bucket, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(bucket, key, value)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.buckets[bucket], key)
	return nil
}

func (m *MemoryStore) Update(_ context.Context, bucket, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, found := m.buckets[bucket][key]
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	m.put(bucket, key, next)
	return nil
}

func (m *MemoryStore) put(bucket, key string, value []byte) {
	if m.buckets[bucket] == nil {
		m.buckets[bucket] = make(map[string][]byte)
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.buckets[bucket][key] = stored
}
