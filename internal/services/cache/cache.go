// Package cache defines the cache layer contract and a read-through chain of
// layers.
package cache

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

type CacheLayer interface {
	Name() string
	Store(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	GetStats() LayerStats
}

type LayerStats struct {
	Name      string  `json:"name"`
	Objects   int     `json:"objects"`
	SizeBytes int64   `json:"sizeBytes"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hitRate"`
}

// Chain queries layers in order. A hit in a later layer is copied into the
// earlier ones.
type Chain struct {
	layers []CacheLayer
}

func NewChain(layers ...CacheLayer) *Chain {
	var active []CacheLayer
	for _, l := range layers {
		if l != nil {
			active = append(active, l)
		}
	}
	return &Chain{layers: active}
}

// Get returns the value and the name of the layer that served it.
func (c *Chain) Get(ctx context.Context, key string) ([]byte, string, error) {
	for i, layer := range c.layers {
		data, err := layer.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, ErrMiss) {
				log.Warn().Err(err).Str("layer", layer.Name()).Msg("cache layer read failed")
			}
			continue
		}
		for _, earlier := range c.layers[:i] {
			if err := earlier.Store(ctx, key, data); err != nil {
				log.Warn().Err(err).Str("layer", earlier.Name()).Msg("cache promotion failed")
			}
		}
		return data, layer.Name(), nil
	}
	return nil, "", ErrMiss
}

// Store writes to every layer. It fails only if no layer accepted the value.
func (c *Chain) Store(ctx context.Context, key string, data []byte) error {
	var firstErr error
	stored := 0
	for _, layer := range c.layers {
		if err := layer.Store(ctx, key, data); err != nil {
			log.Warn().Err(err).Str("layer", layer.Name()).Msg("cache store failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stored++
	}
	if stored == 0 && firstErr != nil {
		return firstErr
	}
	return nil
}

func (c *Chain) Delete(ctx context.Context, key string) error {
	var firstErr error
	for _, layer := range c.layers {
		if err := layer.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Chain) Clear(ctx context.Context) error {
	var firstErr error
	for _, layer := range c.layers {
		if err := layer.Clear(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Chain) Stats() []LayerStats {
	stats := make([]LayerStats, 0, len(c.layers))
	for _, layer := range c.layers {
		stats = append(stats, layer.GetStats())
	}
	return stats
}

// HitRate returns hits as a percentage of lookups.
func HitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
