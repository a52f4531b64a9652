package caches

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflow-service/internal/services/cache"
)

func TestFileSystemCache_StoreGetDelete(t *testing.T) {
	ctx := context.Background()
	fsc, err := NewFileSystemCache(t.TempDir(), 1024, time.Hour, 0)
	require.NoError(t, err)
	defer fsc.Close()

	require.NoError(t, fsc.Store(ctx, "analysis:one", []byte(`{"count":1}`)))

	data, err := fsc.Get(ctx, "analysis:one")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":1}`, string(data))

	ok, err := fsc.Exists(ctx, "analysis:one")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, fsc.Delete(ctx, "analysis:one"))
	_, err = fsc.Get(ctx, "analysis:one")
	assert.ErrorIs(t, err, cache.ErrMiss)

	stats := fsc.GetStats()
	assert.Equal(t, 0, stats.Objects)
	assert.Equal(t, int64(0), stats.SizeBytes)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestFileSystemCache_SizeSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFileSystemCache(dir, 1024, time.Hour, 0)
	require.NoError(t, err)
	require.NoError(t, first.Store(ctx, "a", []byte("alpha")))
	require.NoError(t, first.Store(ctx, "a", []byte("beta")))
	first.Close()

	second, err := NewFileSystemCache(dir, 1024, time.Hour, 0)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, int64(4), second.GetStats().SizeBytes)
	data, err := second.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "beta", string(data))
}

func TestFileSystemCache_EvictsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	fsc, err := NewFileSystemCache(t.TempDir(), 10, time.Hour, 0)
	require.NoError(t, err)
	defer fsc.Close()

	require.NoError(t, fsc.Store(ctx, "old", []byte("123456")))
	past := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(fsc.path("old"), past, past))

	require.NoError(t, fsc.Store(ctx, "new", []byte("abcdef")))

	_, err = fsc.Get(ctx, "old")
	assert.ErrorIs(t, err, cache.ErrMiss)
	_, err = fsc.Get(ctx, "new")
	assert.NoError(t, err)

	assert.Error(t, fsc.Store(ctx, "huge", make([]byte, 11)))
}

func TestFileSystemCache_Expiry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fsc, err := NewFileSystemCache(dir, 1024, time.Minute, 0)
	require.NoError(t, err)
	defer fsc.Close()

	require.NoError(t, fsc.Store(ctx, "stale", []byte("x")))
	require.NoError(t, fsc.Store(ctx, "fresh", []byte("y")))
	past := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(fsc.path("stale"), past, past))

	ok, _ := fsc.Exists(ctx, "stale")
	assert.False(t, ok)

	assert.Equal(t, 1, fsc.sweep(time.Now()))
	_, err = os.Stat(fsc.path("stale"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, fsc.Clear(ctx))
	matches, _ := filepath.Glob(filepath.Join(dir, "*"+cacheFileExt))
	assert.Empty(t, matches)
}

func TestFileSystemCache_InChain(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryCache(1024, time.Hour, 0)
	defer mem.Close()
	disk, err := NewFileSystemCache(t.TempDir(), 1024, time.Hour, 0)
	require.NoError(t, err)
	defer disk.Close()

	require.NoError(t, disk.Store(ctx, "k", []byte("v")))
	chain := cache.NewChain(mem, disk)

	data, layer, err := chain.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(data))
	assert.Equal(t, "FILESYSTEM", layer)

	_, layer, err = chain.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, mem.Name(), layer)
}
