package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kasinadhsarma/vectorshift/internal/domain/connector"
	"github.com/kasinadhsarma/vectorshift/internal/repository"
)

// RedisStateStore implements repository.StateStore backed by Redis. Entries
// expire via the key TTL; consumption uses GETDEL so racing callbacks on the
// same key resolve to exactly one winner.
type RedisStateStore struct {
	client redis.UniversalClient
}

var _ repository.StateStore = (*RedisStateStore)(nil)

// NewRedisStateStore constructs a Redis-backed state store.
func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// SaveState stores the encoded pending authorization with TTL, overwriting
// any prior entry for the key.
func (s *RedisStateStore) SaveState(ctx context.Context, key string, data connector.PendingAuthorization, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// TakeState atomically loads and deletes the entry. Returns nil, nil when the
// key is absent or expired.
func (s *RedisStateStore) TakeState(ctx context.Context, key string) (*connector.PendingAuthorization, error) {
	bytes, err := s.client.GetDel(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("take state: %w", err)
	}
	var pending connector.PendingAuthorization
	if err := json.Unmarshal(bytes, &pending); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &pending, nil
}

// DeleteState removes the persisted state key.
func (s *RedisStateStore) DeleteState(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}
