package cache

import (
	"context"
	"errors"
	"time"

	"github.com/BaSui01/assetflow/types"
)

// ErrStoreUnavailable is returned by stores whose backend cannot be reached.
var ErrStoreUnavailable = errors.New("cache store unavailable")

// Store is the asset memo store pipelines consult. Implementations must be
// safe for concurrent use. Callers treat Store errors as misses.
//
// Stores that serialize (RedisStore) decode hits back into the typed shapes
// a fresh run produces; see DecodeAsset.
type Store interface {
	Get(ctx context.Context, key string) (types.Asset, bool, error)
	Set(ctx context.Context, key string, asset types.Asset) error
}

// MemoryStore adapts TTLCache to Store. Assets are cloned on the way in and
// out so cached values never alias caller-owned maps.
type MemoryStore struct {
	cache *TTLCache[types.Asset]
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore(ttl time.Duration, clock Clock) *MemoryStore {
	return &MemoryStore{cache: NewTTLCache[types.Asset](ttl, clock)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (types.Asset, bool, error) {
	a, ok := s.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return a.Clone(), true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, asset types.Asset) error {
	s.cache.Set(key, asset.Clone())
	return nil
}

// SetWithTTL stores a copy that expires after remaining.
func (s *MemoryStore) SetWithTTL(key string, asset types.Asset, remaining time.Duration) {
	s.cache.SetWithTTL(key, asset.Clone(), remaining)
}

// Len reports stored entries.
func (s *MemoryStore) Len() int { return s.cache.Len() }

// NopStore never hits and never fails.
type NopStore struct{}

func (NopStore) Get(context.Context, string) (types.Asset, bool, error) { return nil, false, nil }
func (NopStore) Set(context.Context, string, types.Asset) error         { return nil }
