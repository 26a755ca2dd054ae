package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/alexanderramin/insession/internal/repository"
)

// FixedNow is the default starting instant for fake clocks.
var FixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// FakeClock is a manually advanced clock safe for concurrent use.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock by d. A negative d simulates a wall-clock
// adjustment backwards.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FailingKV wraps a KeyValueRepo and fails reads or writes on demand.
type FailingKV struct {
	repository.KeyValueRepo
	GetErr   error
	ApplyErr error
}

func (f *FailingKV) Get(ctx context.Context, key string) (string, error) {
	if f.GetErr != nil {
		return "", f.GetErr
	}
	return f.KeyValueRepo.Get(ctx, key)
}

func (f *FailingKV) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	return f.KeyValueRepo.GetMany(ctx, keys...)
}

func (f *FailingKV) Apply(ctx context.Context, b repository.Batch) error {
	if f.ApplyErr != nil {
		return f.ApplyErr
	}
	return f.KeyValueRepo.Apply(ctx, b)
}
