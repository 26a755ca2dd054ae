package repository

import "context"

// Batch is a set of key writes and deletes applied together.
type Batch struct {
	Set    map[string]string
	Delete []string
}

func (b Batch) empty() bool {
	return len(b.Set) == 0 && len(b.Delete) == 0
}

// KeyValueRepo is a small durable string store.
type KeyValueRepo interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	// GetMany reads keys as one consistent snapshot. Absent keys are
	// omitted from the result.
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	// Apply performs every write and delete in b atomically: either all of
	// them take effect or none does.
	Apply(ctx context.Context, b Batch) error
}
