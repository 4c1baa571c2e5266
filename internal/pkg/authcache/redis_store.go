package authcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "auth:status:"

// RedisStore backs the auth status cache with Redis so the snapshot survives
// process restarts and is shared across instances. TTL handling is delegated
// to Redis key expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Snapshot, bool) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, false
	}
	return snap, true
}

func (s *RedisStore) Set(ctx context.Context, key string, snap Snapshot, ttl time.Duration) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, key string) {
	_ = s.client.Del(ctx, redisKeyPrefix+key).Err()
}
