package domain

import "time"

// Default provider hosts.
const (
	DefaultUnpkgURL   = "https://unpkg.com"
	DefaultSkypackURL = "https://cdn.skypack.dev"
)

// DefaultBuildTimeout bounds a single compile when no timeout is configured.
const DefaultBuildTimeout = 30 * time.Second

// DefaultServerAddr is the listen address of `jsbook serve`.
const DefaultServerAddr = "127.0.0.1:4173"

// Config is the resolved jsbook configuration.
type Config struct {
	// Root is the directory holding the configuration file, or the working directory.
	Root      string
	Providers Providers
	Cache     CacheConfig
	Build     BuildConfig
	Preview   PreviewConfig
	Server    ServerConfig
}

// Providers holds the base URL of every provider.
type Providers struct {
	Unpkg   string
	Skypack string
}

// BaseURL returns the base URL configured for p.
func (p Providers) BaseURL(provider Provider) string {
	if provider == ProviderSkypack {
		return p.Skypack
	}
	return p.Unpkg
}

// CacheConfig controls the module cache.
type CacheConfig struct {
	Dir     string
	Persist bool
}

// BuildConfig controls the bundler invocation.
type BuildConfig struct {
	Timeout time.Duration
	Define  map[string]string
}

// PreviewConfig controls the preview document.
type PreviewConfig struct {
	Scripts []string
}

// ServerConfig controls `jsbook serve`.
type ServerConfig struct {
	Addr        string
	IdleTimeout time.Duration
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig(root string) *Config {
	return &Config{
		Root: root,
		Providers: Providers{
			Unpkg:   DefaultUnpkgURL,
			Skypack: DefaultSkypackURL,
		},
		Cache: CacheConfig{
			Dir:     DefaultCachePath(root),
			Persist: true,
		},
		Build: BuildConfig{
			Timeout: DefaultBuildTimeout,
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
	}
}
