package caches

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"userflow-service/internal/services/cache"
)

// MemoryCache is a size-bounded in-process layer with LRU eviction and TTL.
type MemoryCache struct {
	mu          sync.Mutex
	entries     map[string]*memoryEntry
	maxSize     int64
	currentSize int64
	ttl         time.Duration

	hits   atomic.Int64
	misses atomic.Int64

	stop chan struct{}
	once sync.Once
	now  func() time.Time
}

type memoryEntry struct {
	data       []byte
	createdAt  time.Time
	lastAccess time.Time
}

// NewMemoryCache starts a sweeper that drops expired entries every interval.
func NewMemoryCache(maxSizeBytes int64, ttl, sweepInterval time.Duration) *MemoryCache {
	mc := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		maxSize: maxSizeBytes,
		ttl:     ttl,
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	if sweepInterval > 0 {
		go mc.cleanupExpired(sweepInterval)
	}
	return mc
}

func (mc *MemoryCache) Name() string {
	return "MEMORY"
}

func (mc *MemoryCache) Store(_ context.Context, key string, data []byte) error {
	size := int64(len(data))
	if size > mc.maxSize {
		return fmt.Errorf("value of %d bytes exceeds memory cache capacity", size)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.removeLocked(key)
	for mc.currentSize+size > mc.maxSize {
		if !mc.evictLRULocked() {
			return fmt.Errorf("unable to free space for value of size %d", size)
		}
	}

	now := mc.now()
	mc.entries[key] = &memoryEntry{data: data, createdAt: now, lastAccess: now}
	mc.currentSize += size
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry, ok := mc.entries[key]
	if ok && mc.expired(entry) {
		mc.removeLocked(key)
		ok = false
	}
	if !ok {
		mc.misses.Add(1)
		return nil, cache.ErrMiss
	}
	entry.lastAccess = mc.now()
	mc.hits.Add(1)
	return entry.data, nil
}

func (mc *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	entry, ok := mc.entries[key]
	return ok && !mc.expired(entry), nil
}

func (mc *MemoryCache) Delete(_ context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.removeLocked(key)
	return nil
}

func (mc *MemoryCache) Clear(_ context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.entries = make(map[string]*memoryEntry)
	mc.currentSize = 0
	mc.hits.Store(0)
	mc.misses.Store(0)
	return nil
}

func (mc *MemoryCache) GetStats() cache.LayerStats {
	mc.mu.Lock()
	objects, size := len(mc.entries), mc.currentSize
	mc.mu.Unlock()

	hits, misses := mc.hits.Load(), mc.misses.Load()
	return cache.LayerStats{
		Name:      "Memory",
		Objects:   objects,
		SizeBytes: size,
		Hits:      hits,
		Misses:    misses,
		HitRate:   cache.HitRate(hits, misses),
	}
}

// Close stops the sweeper.
func (mc *MemoryCache) Close() {
	mc.once.Do(func() { close(mc.stop) })
}

func (mc *MemoryCache) expired(e *memoryEntry) bool {
	return mc.ttl > 0 && mc.now().Sub(e.createdAt) > mc.ttl
}

func (mc *MemoryCache) removeLocked(key string) {
	if entry, ok := mc.entries[key]; ok {
		mc.currentSize -= int64(len(entry.data))
		delete(mc.entries, key)
	}
}

func (mc *MemoryCache) evictLRULocked() bool {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range mc.entries {
		if oldestKey == "" || entry.lastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccess
		}
	}
	if oldestKey == "" {
		return false
	}
	mc.removeLocked(oldestKey)
	return true
}

func (mc *MemoryCache) sweep() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	removed := 0
	for key, entry := range mc.entries {
		if mc.expired(entry) {
			mc.removeLocked(key)
			removed++
		}
	}
	return removed
}

func (mc *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			if n := mc.sweep(); n > 0 {
				log.Debug().Int("expired", n).Msg("memory cache sweep")
			}
		}
	}
}
