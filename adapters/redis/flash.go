package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lborres/linkid/core"
	"github.com/redis/go-redis/v9"
)

const flashKeyPrefix = "linkid:flash"

// FlashStore keeps flashed entries in Redis so every instance behind a load
// balancer sees them.
type FlashStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

var _ core.FlashStore = (*FlashStore)(nil)

func NewFlashStore(client *redis.Client, ttl time.Duration) *FlashStore {
	return &FlashStore{
		redis:  client,
		prefix: flashKeyPrefix,
		ttl:    ttl,
	}
}

func (s *FlashStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *FlashStore) Save(ctx context.Context, id string, entries map[string]string) error {
	encoded, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(id), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("flash save: %w", err)
	}
	return nil
}

// Take reads and deletes in one GETDEL so two requests can never both see
// the same entries.
func (s *FlashStore) Take(ctx context.Context, id string) (map[string]string, error) {
	data, err := s.redis.GetDel(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrFlashNotFound
		}
		return nil, fmt.Errorf("flash take: %w", err)
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("flash decode: %w", err)
	}
	return entries, nil
}
