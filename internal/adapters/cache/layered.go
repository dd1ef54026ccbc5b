package cache

import (
	"context"

	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports"
)

// Layered serves reads from a fast cache and falls back to a persistent one.
// Hits on the persistent layer are promoted into the fast layer.
type Layered struct {
	front ports.ModuleCache
	back  ports.ModuleCache
}

// NewLayered combines front and back into a single cache.
func NewLayered(front, back ports.ModuleCache) *Layered {
	return &Layered{front: front, back: back}
}

// Get checks the front layer, then the back layer.
func (l *Layered) Get(ctx context.Context, key string) (*domain.LoadResult, error) {
	if result, err := l.front.Get(ctx, key); err != nil || result != nil {
		return result, err
	}

	result, err := l.back.Get(ctx, key)
	if err != nil || result == nil {
		return result, err
	}

	if err := l.front.Set(ctx, key, *result); err != nil {
		return nil, err
	}
	return result, nil
}

// Set writes through both layers. The front layer is updated even if the back layer fails.
func (l *Layered) Set(ctx context.Context, key string, result domain.LoadResult) error {
	if err := l.front.Set(ctx, key, result); err != nil {
		return err
	}
	return l.back.Set(ctx, key, result)
}

// Open returns the cache described by cfg.
// A persistent configuration yields a memory cache layered over a disk cache.
func Open(cfg domain.CacheConfig) (ports.ModuleCache, error) {
	if !cfg.Persist || cfg.Dir == "" {
		return NewMemory(), nil
	}

	disk, err := NewDisk(cfg.Dir)
	if err != nil {
		return nil, err
	}
	return NewLayered(NewMemory(), disk), nil
}
