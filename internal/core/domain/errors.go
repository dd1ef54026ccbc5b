package domain

import "go.trai.ch/zerr"

var (
	// ErrResolutionFailed is returned when an import specifier cannot be mapped to a fetchable path.
	ErrResolutionFailed = zerr.New("failed to resolve import")

	// ErrNoLoader is returned when no load handler accepts a resolved module.
	ErrNoLoader = zerr.New("no loader matched module")

	// ErrNetworkFailure is returned when a module fetch fails or returns a non-success status.
	ErrNetworkFailure = zerr.New("failed to fetch module")

	// ErrTransformFailed is returned when the runtime transform rejects the entry source.
	ErrTransformFailed = zerr.New("failed to transform entry source")

	// ErrEmptyOutput is returned when a build completes without producing a script.
	ErrEmptyOutput = zerr.New("compile unsuccessful")

	// ErrCompileTimeout is returned when a build exceeds its deadline.
	ErrCompileTimeout = zerr.New("compile timed out")

	// ErrPluginPanicked is returned when a resolve or load callback panics.
	ErrPluginPanicked = zerr.New("plugin panicked")

	// ErrWatchInputRequired is returned when watch is asked to follow standard input.
	ErrWatchInputRequired = zerr.New("watch requires a source file")

	// ErrCompileFailed is returned by the CLI when at least one cell failed to compile.
	ErrCompileFailed = zerr.New("compile failed")

	// ErrUnknownRuntime is returned when a runtime name is not recognised.
	ErrUnknownRuntime = zerr.New("unknown runtime")

	// ErrCacheCreateFailed is returned when the cache directory cannot be created.
	ErrCacheCreateFailed = zerr.New("failed to create module cache directory")

	// ErrCacheReadFailed is returned when a cache entry cannot be read.
	ErrCacheReadFailed = zerr.New("failed to read module cache entry")

	// ErrCacheWriteFailed is returned when a cache entry cannot be written.
	ErrCacheWriteFailed = zerr.New("failed to write module cache entry")

	// ErrCacheMarshalFailed is returned when a cache entry cannot be marshaled.
	ErrCacheMarshalFailed = zerr.New("failed to marshal module cache entry")

	// ErrCacheUnmarshalFailed is returned when a cache entry cannot be unmarshaled.
	ErrCacheUnmarshalFailed = zerr.New("failed to unmarshal module cache entry")

	// ErrCacheCorrupt is returned when a cache entry does not match its recorded digest.
	ErrCacheCorrupt = zerr.New("module cache entry is corrupt")

	// ErrConfigReadFailed is returned when a config or notebook file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when a config or notebook file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidDuration is returned when a duration field cannot be parsed.
	ErrInvalidDuration = zerr.New("invalid duration")

	// ErrInvalidProviderURL is returned when a provider base URL is not an absolute http(s) URL.
	ErrInvalidProviderURL = zerr.New("provider URL must be an absolute http(s) URL")

	// ErrNotebookInvalid is returned when a notebook fails validation.
	ErrNotebookInvalid = zerr.New("invalid notebook")

	// ErrInvalidCellID is returned when a cell ID is empty or contains invalid characters.
	ErrInvalidCellID = zerr.New("cell id can only contain alphanumeric characters, hyphens and underscores")

	// ErrDuplicateCellID is returned when two cells share an ID.
	ErrDuplicateCellID = zerr.New("duplicate cell id")

	// ErrInvalidCellType is returned when a cell type is neither code nor text.
	ErrInvalidCellType = zerr.New("invalid cell type, expected 'code' or 'text'")
)
