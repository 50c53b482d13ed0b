package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps attempt records in Redis, for deployments where several
// processes must share a limit. Window expiry is delegated to key TTLs.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(k string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, k)
}

func (s *RedisStore) Get(ctx context.Context, key string) (int, time.Time, bool, error) {
	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, s.key(key))
	ttlCmd := pipe.TTL(ctx, s.key(key))

	if _, err := pipe.Exec(ctx); err != nil {
		if err == redis.Nil {
			return 0, time.Time{}, false, nil
		}
		return 0, time.Time{}, false, err
	}

	count, err := getCmd.Int()
	if err != nil {
		return 0, time.Time{}, false, err
	}

	ttl := ttlCmd.Val()
	if ttl <= 0 {
		return 0, time.Time{}, false, nil
	}

	return count, time.Now().Add(ttl), true, nil
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	count, err := s.client.Incr(ctx, s.key(key)).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	// Set expiry on first attempt of the window
	if count == 1 {
		if err := s.client.Expire(ctx, s.key(key), window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		return int(count), time.Now().Add(window), nil
	}

	ttl, err := s.client.TTL(ctx, s.key(key)).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}

	return int(count), time.Now().Add(ttl), nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
