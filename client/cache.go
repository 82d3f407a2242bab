package client

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/mmdatafocus/shop_console/config"
)

// Cache holds decoded remote reads, scoped per resource so a mutation can
// drop every entry of that resource at once.
type Cache interface {
	Get(ctx context.Context, resource, key string, dest any) (bool, error)
	Set(ctx context.Context, resource, key string, value any) error
	Keys(ctx context.Context, resource string) ([]string, error)
	Clear(ctx context.Context, resource string) error
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache keeps JSON copies so callers never share slices with the cache.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: map[string]map[string]memoryEntry{},
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, resource, key string, dest any) (bool, error) {
	m.mu.Lock()
	entry, ok := m.entries[resource][key]
	if ok && m.ttl > 0 && m.now().After(entry.expires) {
		delete(m.entries[resource], key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MemoryCache) Set(_ context.Context, resource, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[resource] == nil {
		m.entries[resource] = map[string]memoryEntry{}
	}
	m.entries[resource][key] = memoryEntry{data: data, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryCache) Keys(_ context.Context, resource string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries[resource]))
	for k := range m.entries[resource] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryCache) Clear(_ context.Context, resource string) error {
	m.mu.Lock()
	delete(m.entries, resource)
	m.mu.Unlock()
	return nil
}

// RedisCache shares cached reads between console instances through the
// global redis client. Keys of a resource are tracked in a set.
type RedisCache struct {
	ttl time.Duration
}

func NewRedisCache(ttl time.Duration) *RedisCache {
	return &RedisCache{ttl: ttl}
}

func redisCacheKey(resource, key string) string {
	return "ConsoleCache:" + resource + ":" + key
}

func redisCacheSet(resource string) string {
	return "ConsoleCacheKeys:" + resource
}

func (r *RedisCache) Get(ctx context.Context, resource, key string, dest any) (bool, error) {
	return config.GetRedisObject(ctx, redisCacheKey(resource, key), dest)
}

func (r *RedisCache) Set(ctx context.Context, resource, key string, value any) error {
	if err := config.SetRedisObject(ctx, redisCacheKey(resource, key), value, r.ttl); err != nil {
		return err
	}
	return config.AddRedisSet(ctx, redisCacheSet(resource), key)
}

func (r *RedisCache) Keys(ctx context.Context, resource string) ([]string, error) {
	keys, err := config.GetRedisSetMembers(ctx, redisCacheSet(resource))
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *RedisCache) Clear(ctx context.Context, resource string) error {
	keys, err := config.GetRedisSetMembers(ctx, redisCacheSet(resource))
	if err != nil {
		return err
	}
	redisKeys := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		redisKeys = append(redisKeys, redisCacheKey(resource, k))
	}
	redisKeys = append(redisKeys, redisCacheSet(resource))
	return config.RemoveRedisKey(ctx, redisKeys...)
}
