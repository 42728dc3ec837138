package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data     []byte
	expireAt time.Time
}

func (e *memoryEntry) expired() bool {
	return time.Now().After(e.expireAt)
}

// MemoryCache implements Service in process memory with LRU eviction and a
// background janitor. Values are stored JSON-encoded so Get/Set behave the
// same as the Redis implementation.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	access  map[string]time.Time
	maxSize int
	janitor *time.Ticker
	done    chan struct{}
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		access:  make(map[string]time.Time),
		maxSize: cfg.MaxSize,
		janitor: time.NewTicker(cfg.CleanupInterval),
		done:    make(chan struct{}),
	}

	go mc.sweep()
	return mc
}

// noExpiry caps entries that were stored without a TTL.
const noExpiry = 7 * 24 * time.Hour

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = noExpiry
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if len(mc.entries) >= mc.maxSize {
		mc.evictOldest()
	}
	mc.entries[key] = &memoryEntry{data: data, expireAt: time.Now().Add(expiration)}
	mc.access[key] = time.Now()
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry, ok := mc.entries[key]
	if !ok || entry.expired() {
		if ok {
			delete(mc.entries, key)
			delete(mc.access, key)
		}
		return ErrCacheMiss
	}
	mc.access[key] = time.Now()

	if strPtr, ok := dest.(*string); ok {
		*strPtr = string(entry.data)
		return nil
	}
	return json.Unmarshal(entry.data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, key := range keys {
		delete(mc.entries, key)
		delete(mc.access, key)
	}
	return nil
}

// DeleteByPattern drops everything; per-pattern matching is a Redis concern
// and the memory layer is just a warm read path.
func (mc *MemoryCache) DeleteByPattern(_ context.Context, _ string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.entries = make(map[string]*memoryEntry)
	mc.access = make(map[string]time.Time)
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	for _, key := range keys {
		if entry, ok := mc.entries[key]; ok && !entry.expired() {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) Increment(_ context.Context, key string) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry, ok := mc.entries[key]
	if !ok || entry.expired() {
		mc.entries[key] = &memoryEntry{data: []byte("1"), expireAt: time.Now().Add(noExpiry)}
		mc.access[key] = time.Now()
		return 1, nil
	}

	var val int64
	if err := json.Unmarshal(entry.data, &val); err != nil {
		return 0, fmt.Errorf("value at %s is not a counter", key)
	}
	val++
	entry.data, _ = json.Marshal(val)
	return val, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if entry, ok := mc.entries[key]; ok {
		entry.expireAt = time.Now().Add(expiration)
		return true, nil
	}
	return false, nil
}

func (mc *MemoryCache) MSet(ctx context.Context, values map[string]interface{}, expiration time.Duration) error {
	for key, value := range values {
		if err := mc.Set(ctx, key, value, expiration); err != nil {
			return err
		}
	}
	return nil
}

func (mc *MemoryCache) MGet(_ context.Context, keys ...string) (map[string]string, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	results := make(map[string]string)
	for _, key := range keys {
		if entry, ok := mc.entries[key]; ok && !entry.expired() {
			results[key] = string(entry.data)
		}
	}
	return results, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if entry, ok := mc.entries[key]; ok && !entry.expired() {
		return false, nil
	}
	mc.entries[key] = &memoryEntry{data: []byte("locked"), expireAt: time.Now().Add(ttl)}
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// evictOldest removes the least recently touched key. Caller holds mu.
func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	oldestTime := time.Now()

	for key, at := range mc.access {
		if at.Before(oldestTime) {
			oldestTime = at
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(mc.entries, oldestKey)
		delete(mc.access, oldestKey)
	}
}

func (mc *MemoryCache) sweep() {
	for {
		select {
		case <-mc.janitor.C:
			mc.mu.Lock()
			now := time.Now()
			for key, entry := range mc.entries {
				if now.After(entry.expireAt) {
					delete(mc.entries, key)
					delete(mc.access, key)
				}
			}
			mc.mu.Unlock()
		case <-mc.done:
			return
		}
	}
}

// Close stops the janitor goroutine.
func (mc *MemoryCache) Close() error {
	mc.janitor.Stop()
	select {
	case <-mc.done:
	default:
		close(mc.done)
	}
	return nil
}

// encodeValue mirrors the Redis encoding: strings stay raw, everything else
// is JSON.
func encodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(value)
	}
}
