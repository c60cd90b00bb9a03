package cache

import (
	"context"
	"time"

	"github.com/lborres/linkid/core"
)

// FlashStore keeps logon errors in memory for one redirect.
// Suitable for single-instance deployments; use the redis adapter otherwise.
type FlashStore struct {
	entries *Memory[map[string]string]
}

var _ core.FlashStore = (*FlashStore)(nil)

// NewFlashStore creates a flash store whose entries expire after ttl
func NewFlashStore(ttl time.Duration, maxSize int) *FlashStore {
	return &FlashStore{
		entries: NewMemory[map[string]string](core.CacheConfig{TTL: ttl, MaxSize: maxSize}),
	}
}

func (f *FlashStore) Save(_ context.Context, id string, entries map[string]string) error {
	copied := make(map[string]string, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return f.entries.Set(id, copied)
}

func (f *FlashStore) Take(_ context.Context, id string) (map[string]string, error) {
	entries, err := f.entries.Take(id)
	if err != nil {
		return nil, core.ErrFlashNotFound
	}
	return entries, nil
}
