package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/types"
)

// MultiLevelStore 多级缓存：L1 本地内存 + L2 共享存储（通常为 Redis）。
// L2 命中按剩余寿命回填 L1；L2 故障降级为未命中，只记录日志。
type MultiLevelStore struct {
	local  *MemoryStore
	remote Store
	logger *zap.Logger
}

// NewMultiLevelStore combines a local and a remote store.
func NewMultiLevelStore(local *MemoryStore, remote Store, logger *zap.Logger) *MultiLevelStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiLevelStore{
		local:  local,
		remote: remote,
		logger: logger.With(zap.String("component", "multilevel_store")),
	}
}

func (s *MultiLevelStore) Get(ctx context.Context, key string) (types.Asset, bool, error) {
	if a, ok, _ := s.local.Get(ctx, key); ok {
		s.logger.Debug("local cache hit", zap.String("key", key))
		return a, true, nil
	}
	if s.remote == nil {
		return nil, false, nil
	}

	a, remaining, ok, err := s.remoteGet(ctx, key)
	if err != nil {
		s.logger.Warn("remote cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	s.local.SetWithTTL(key, a, remaining)
	return a, true, nil
}

// expiringStore reports how long a hit has left to live.
type expiringStore interface {
	GetWithTTL(ctx context.Context, key string) (types.Asset, time.Duration, bool, error)
}

// remoteGet falls back to the local ttl for remotes that cannot report
// a remaining lifetime.
func (s *MultiLevelStore) remoteGet(ctx context.Context, key string) (types.Asset, time.Duration, bool, error) {
	if es, ok := s.remote.(expiringStore); ok {
		return es.GetWithTTL(ctx, key)
	}
	a, ok, err := s.remote.Get(ctx, key)
	return a, s.local.cache.TTL(), ok, err
}

// Set writes L1 first; an L2 failure is returned so the caller can log it,
// but the L1 write stands.
func (s *MultiLevelStore) Set(ctx context.Context, key string, asset types.Asset) error {
	_ = s.local.Set(ctx, key, asset)
	if s.remote == nil {
		return nil
	}
	return s.remote.Set(ctx, key, asset)
}
