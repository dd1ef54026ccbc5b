package ports

import (
	"context"
	"iter"
)

// Watcher reports changes to watched files.
type Watcher interface {
	// Start begins watching the given paths.
	Start(ctx context.Context, paths ...string) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Changes returns an iterator of debounced batches of changed paths.
	Changes() iter.Seq[[]string]
}
