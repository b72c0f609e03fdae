package codestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the code store with Redis; TTL eviction is Redis's own
// SET-with-expiry semantics.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read code: %w", err)
	}
	return value, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete code: %w", err)
	}
	return nil
}

// compareAndDeleteScript deletes the key only when it holds the expected
// value. Running it as a script makes the check-then-delete a single step on
// the server, so concurrent consumers of the same key cannot both succeed.
var compareAndDeleteScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *RedisStore) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	consumed, err := compareAndDeleteScript.Run(ctx, s.client, []string{key}, value).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume code: %w", err)
	}
	return consumed == 1, nil
}
