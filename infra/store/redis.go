package store

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/pricecache"
)

var _ pricecache.Store = (*RedisStore)(nil)

// RedisConfig configures the shared Redis store.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	// Prefix namespaces the hashes; defaults to "evtariff".
	Prefix string `json:"prefix"`
}

// RedisStore keeps one hash per partition, named "<prefix>:<partition>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to Redis and pings it.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis store: addr is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "evtariff"
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis store: ping: %w", err)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

func (s *RedisStore) hash(p pricecache.Partition) string {
	return s.prefix + ":" + string(p)
}

func (s *RedisStore) Get(ctx context.Context, p pricecache.Partition, key string) ([]byte, error) {
	v, err := s.client.HGet(ctx, s.hash(p), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrNotFound
	}
	return v, err
}

func (s *RedisStore) Put(ctx context.Context, p pricecache.Partition, key string, value []byte) error {
	return s.client.HSet(ctx, s.hash(p), key, value).Err()
}

func (s *RedisStore) Delete(ctx context.Context, p pricecache.Partition, key string) error {
	return s.client.HDel(ctx, s.hash(p), key).Err()
}

func (s *RedisStore) Keys(ctx context.Context, p pricecache.Partition) ([]string, error) {
	return s.client.HKeys(ctx, s.hash(p)).Result()
}

func (s *RedisStore) Count(ctx context.Context, p pricecache.Partition) (int, error) {
	n, err := s.client.HLen(ctx, s.hash(p)).Result()
	return int(n), err
}

func (s *RedisStore) Clear(ctx context.Context, p pricecache.Partition) error {
	return s.client.Del(ctx, s.hash(p)).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }
