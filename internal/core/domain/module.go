// Package domain contains the core types of the jsbook bundling pipeline.
package domain

import "time"

// EntryName is the synthetic module name that stands for the cell currently being compiled.
const EntryName = "index.jsx"

// Namespace tags a resolved module with where its contents come from.
type Namespace string

const (
	// NamespaceEntry marks the virtual entry module holding the user's source.
	NamespaceEntry Namespace = "entry"
	// NamespaceUnpkg marks modules fetched from the unpkg provider.
	NamespaceUnpkg Namespace = "unpkg"
	// NamespaceSkypack marks modules fetched from the skypack provider.
	NamespaceSkypack Namespace = "skypack"
)

// Provider identifies a CDN-style host that serves packages by bare specifier.
type Provider uint8

const (
	// ProviderUnpkg is the default provider for bare specifiers.
	ProviderUnpkg Provider = iota
	// ProviderSkypack serves ESM builds; once a chain enters it, it stays there.
	ProviderSkypack
)

// String returns the provider name as used in configuration.
func (p Provider) String() string {
	switch p {
	case ProviderSkypack:
		return "skypack"
	default:
		return "unpkg"
	}
}

// Namespace returns the namespace tag carried by modules served from p.
func (p Provider) Namespace() Namespace {
	switch p {
	case ProviderSkypack:
		return NamespaceSkypack
	default:
		return NamespaceUnpkg
	}
}

// ProviderFor returns the provider a module in namespace ns was served from.
// The entry module and unknown namespaces anchor to the default provider.
func ProviderFor(ns Namespace) Provider {
	if ns == NamespaceSkypack {
		return ProviderSkypack
	}
	return ProviderUnpkg
}

// ResolvedModule is the outcome of resolving an import specifier.
type ResolvedModule struct {
	Path      string
	Namespace Namespace
}

// IsEntry reports whether m is the synthetic entry module.
func (m ResolvedModule) IsEntry() bool {
	return m.Namespace == NamespaceEntry && m.Path == EntryName
}

// LoaderKind selects how the bundler parses loaded contents.
type LoaderKind string

const (
	// LoaderJSX parses contents as JavaScript with JSX syntax.
	LoaderJSX LoaderKind = "jsx"
	// LoaderJS parses contents as plain JavaScript.
	LoaderJS LoaderKind = "js"
	// LoaderText marks raw assets that are never parsed as modules.
	LoaderText LoaderKind = "text"
)

// LoadResult is the contents of one module plus what the bundler needs to parse it.
type LoadResult struct {
	Loader   LoaderKind `json:"loader"`
	Contents string     `json:"contents"`
	// ResolveDir is the base path for relative imports found in Contents.
	// It is set for every network-fetched module.
	ResolveDir string `json:"resolve_dir,omitzero"`
}

// CacheEntry is the persisted form of a LoadResult.
type CacheEntry struct {
	Key      string     `json:"key"`
	Result   LoadResult `json:"result"`
	Digest   uint64     `json:"digest"`
	StoredAt time.Time  `json:"stored_at,omitzero"`
}
