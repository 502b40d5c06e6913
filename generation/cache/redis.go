package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/types"
)

// RedisStore keeps JSON-encoded assets in Redis and lets Redis enforce the TTL.
// Hits are decoded with DecodeAsset.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if prefix == "" {
		prefix = "assetflow:asset:"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "redis_store")),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (types.Asset, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: redis get: %v", ErrStoreUnavailable, err)
	}

	asset, err := DecodeAsset(data)
	if err != nil {
		return nil, false, err
	}
	s.logger.Debug("redis cache hit", zap.String("key", key))
	return asset, true, nil
}

// GetWithTTL is Get plus the entry's remaining lifetime, read in one round
// trip. A key without an expiry reports the store ttl.
func (s *RedisStore) GetWithTTL(ctx context.Context, key string) (types.Asset, time.Duration, bool, error) {
	var (
		getCmd  *redis.StringCmd
		pttlCmd *redis.DurationCmd
	)
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		getCmd = p.Get(ctx, s.prefix+key)
		pttlCmd = p.PTTL(ctx, s.prefix+key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("%w: redis get: %v", ErrStoreUnavailable, err)
	}

	data, err := getCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("%w: redis get: %v", ErrStoreUnavailable, err)
	}
	remaining := pttlCmd.Val()
	switch {
	case remaining == -1:
		remaining = s.ttl
	case remaining <= 0:
		// 读取后恰好过期
		return nil, 0, false, nil
	}

	asset, err := DecodeAsset(data)
	if err != nil {
		return nil, 0, false, err
	}
	s.logger.Debug("redis cache hit", zap.String("key", key), zap.Duration("remaining", remaining))
	return asset, remaining, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, asset types.Asset) error {
	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("encode asset: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// NewRedisClient opens a client and verifies the connection.
func NewRedisClient(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
