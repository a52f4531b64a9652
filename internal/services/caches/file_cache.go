package caches

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"userflow-service/internal/services/cache"
)

const cacheFileExt = ".cache"

// FileSystemCache keeps values as files under basePath. It survives restarts
// of a single instance; file modification time doubles as the access time
// used for eviction and expiry.
type FileSystemCache struct {
	basePath    string
	maxSize     int64
	currentSize atomic.Int64
	ttl         time.Duration
	mu          sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64

	stop chan struct{}
	once sync.Once
}

// NewFileSystemCache creates basePath if needed and accounts for files
// already there. A sweeper removes expired files every sweepInterval.
func NewFileSystemCache(basePath string, maxSizeBytes int64, ttl, sweepInterval time.Duration) (*FileSystemCache, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	fsc := &FileSystemCache{
		basePath: basePath,
		maxSize:  maxSizeBytes,
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	var total int64
	fsc.walk(func(_ string, info fs.FileInfo) { total += info.Size() })
	fsc.currentSize.Store(total)

	if sweepInterval > 0 {
		go fsc.cleanupExpired(sweepInterval)
	}
	return fsc, nil
}

func (fsc *FileSystemCache) Name() string {
	return "FILESYSTEM"
}

func (fsc *FileSystemCache) Store(_ context.Context, key string, data []byte) error {
	size := int64(len(data))
	if size > fsc.maxSize {
		return fmt.Errorf("value of %d bytes exceeds file cache capacity", size)
	}

	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	p := fsc.path(key)
	fsc.removeFile(p)
	for fsc.currentSize.Load()+size > fsc.maxSize {
		if !fsc.evictOldestFile() {
			return fmt.Errorf("unable to free space for value of size %d", size)
		}
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	fsc.currentSize.Add(size)
	return nil
}

func (fsc *FileSystemCache) Get(_ context.Context, key string) ([]byte, error) {
	p := fsc.path(key)
	info, err := os.Stat(p)
	if err != nil {
		fsc.misses.Add(1)
		return nil, cache.ErrMiss
	}
	if fsc.expired(info, time.Now()) {
		fsc.mu.Lock()
		fsc.removeFile(p)
		fsc.mu.Unlock()
		fsc.misses.Add(1)
		return nil, cache.ErrMiss
	}

	data, err := os.ReadFile(p)
	if err != nil {
		fsc.misses.Add(1)
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	fsc.hits.Add(1)
	return data, nil
}

func (fsc *FileSystemCache) Exists(_ context.Context, key string) (bool, error) {
	info, err := os.Stat(fsc.path(key))
	if err != nil {
		return false, nil
	}
	return !fsc.expired(info, time.Now()), nil
}

func (fsc *FileSystemCache) Delete(_ context.Context, key string) error {
	fsc.mu.Lock()
	defer fsc.mu.Unlock()
	fsc.removeFile(fsc.path(key))
	return nil
}

func (fsc *FileSystemCache) Clear(_ context.Context) error {
	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	var paths []string
	fsc.walk(func(p string, _ fs.FileInfo) { paths = append(paths, p) })
	for _, p := range paths {
		fsc.removeFile(p)
	}
	fsc.hits.Store(0)
	fsc.misses.Store(0)
	return nil
}

func (fsc *FileSystemCache) GetStats() cache.LayerStats {
	objects := 0
	fsc.walk(func(string, fs.FileInfo) { objects++ })

	hits, misses := fsc.hits.Load(), fsc.misses.Load()
	return cache.LayerStats{
		Name:      "FileSystem",
		Objects:   objects,
		SizeBytes: fsc.currentSize.Load(),
		Hits:      hits,
		Misses:    misses,
		HitRate:   cache.HitRate(hits, misses),
	}
}

// Close stops the sweeper.
func (fsc *FileSystemCache) Close() {
	fsc.once.Do(func() { close(fsc.stop) })
}

// path maps an arbitrary key onto a fixed-length file name.
func (fsc *FileSystemCache) path(key string) string {
	name := uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
	return filepath.Join(fsc.basePath, name+cacheFileExt)
}

func (fsc *FileSystemCache) expired(info fs.FileInfo, now time.Time) bool {
	return fsc.ttl > 0 && now.Sub(info.ModTime()) > fsc.ttl
}

// removeFile deletes p and releases its size. Callers hold mu.
func (fsc *FileSystemCache) removeFile(p string) {
	info, err := os.Stat(p)
	if err != nil {
		return
	}
	if os.Remove(p) == nil {
		fsc.currentSize.Add(-info.Size())
	}
}

func (fsc *FileSystemCache) walk(fn func(p string, info fs.FileInfo)) {
	_ = filepath.WalkDir(fsc.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != cacheFileExt {
			return nil
		}
		if info, err := d.Info(); err == nil {
			fn(p, info)
		}
		return nil
	})
}

func (fsc *FileSystemCache) evictOldestFile() bool {
	var oldestPath string
	var oldestTime time.Time
	fsc.walk(func(p string, info fs.FileInfo) {
		if oldestPath == "" || info.ModTime().Before(oldestTime) {
			oldestPath = p
			oldestTime = info.ModTime()
		}
	})
	if oldestPath == "" {
		return false
	}
	fsc.removeFile(oldestPath)
	return true
}

func (fsc *FileSystemCache) sweep(now time.Time) int {
	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	var expired []string
	fsc.walk(func(p string, info fs.FileInfo) {
		if fsc.expired(info, now) {
			expired = append(expired, p)
		}
	})
	for _, p := range expired {
		fsc.removeFile(p)
	}
	return len(expired)
}

func (fsc *FileSystemCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-fsc.stop:
			return
		case now := <-ticker.C:
			if n := fsc.sweep(now); n > 0 {
				log.Debug().Int("expired", n).Msg("file cache sweep")
			}
		}
	}
}
