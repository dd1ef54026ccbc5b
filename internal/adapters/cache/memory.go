// Package cache implements the module cache used by the bundling pipeline.
package cache

import (
	"context"
	"sync"

	"go.trai.ch/jsbook/internal/core/domain"
)

// Memory is a process-local ModuleCache.
// It is safe for concurrent use by esbuild plugin callbacks.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]domain.LoadResult
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]domain.LoadResult),
	}
}

// Get returns the entry stored under key, or nil if there is none.
func (m *Memory) Get(_ context.Context, key string) (*domain.LoadResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &result, nil
}

// Set stores result under key. The last writer wins.
func (m *Memory) Set(_ context.Context, key string, result domain.LoadResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = result
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}
