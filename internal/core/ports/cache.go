package ports

import (
	"context"

	"go.trai.ch/jsbook/internal/core/domain"
)

// ModuleCache maps an exact resolved module path to its load result.
// Entries are never invalidated by the pipeline.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type ModuleCache interface {
	// Get returns the cached result for key.
	// Returns nil, nil if not found.
	Get(ctx context.Context, key string) (*domain.LoadResult, error)

	// Set stores result under key, replacing any previous entry.
	Set(ctx context.Context, key string, result domain.LoadResult) error
}
