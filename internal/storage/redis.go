// Package storage provides the durable key-value store behind user state.
// Values are opaque JSON blobs; a missing key is an absent value, not an
// error, so callers can fall back to defaults.
package storage

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Redis  redis.UniversalClient
	Prefix string
}

type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedis(c Config) *Redis {
	return &Redis{
		rdb:    c.Redis,
		prefix: c.Prefix,
	}
}

// Load reads the value stored at key. The second return is false when the
// key is absent.
func (s *Redis) Load(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: load %s: %w", key, err)
	}
	return b, true, nil
}

// Store writes the value at key, overwriting any previous value.
func (s *Redis) Store(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("storage: store %s: %w", key, err)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (s *Redis) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

func (s *Redis) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return fmt.Sprintf("%s:%s", s.prefix, k)
}
