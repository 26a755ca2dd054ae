package repository

import (
	"context"
	"fmt"
	"sync"
)

// MemoryKeyValueRepo is a process-local KeyValueRepo.
type MemoryKeyValueRepo struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKeyValueRepo() *MemoryKeyValueRepo {
	return &MemoryKeyValueRepo{values: make(map[string]string)}
}

func (r *MemoryKeyValueRepo) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	if !ok {
		return "", fmt.Errorf("key %q: %w", key, ErrNotFound)
	}
	return v, nil
}

func (r *MemoryKeyValueRepo) GetMany(_ context.Context, keys ...string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := r.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (r *MemoryKeyValueRepo) Apply(_ context.Context, b Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range b.Set {
		r.values[k] = v
	}
	for _, k := range b.Delete {
		delete(r.values, k)
	}
	return nil
}

// Len reports how many keys are stored.
func (r *MemoryKeyValueRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}
