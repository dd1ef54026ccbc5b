package config

// Configfile represents the structure of the jsbook.yaml configuration file.
type Configfile struct {
	Version   string       `yaml:"version"`
	Providers ProvidersDTO `yaml:"providers"`
	Cache     CacheDTO     `yaml:"cache"`
	Build     BuildDTO     `yaml:"build"`
	Preview   PreviewDTO   `yaml:"preview"`
	Server    ServerDTO    `yaml:"server"`
}

// ProvidersDTO holds provider base URL overrides.
type ProvidersDTO struct {
	Unpkg   string `yaml:"unpkg"`
	Skypack string `yaml:"skypack"`
}

// CacheDTO configures the module cache.
type CacheDTO struct {
	Dir     string `yaml:"dir"`
	Persist *bool  `yaml:"persist"`
}

// BuildDTO configures the bundler.
type BuildDTO struct {
	Timeout string            `yaml:"timeout"`
	Define  map[string]string `yaml:"define"`
}

// PreviewDTO configures the preview document.
type PreviewDTO struct {
	Scripts []string `yaml:"scripts"`
}

// ServerDTO configures `jsbook serve`.
type ServerDTO struct {
	Addr        string `yaml:"addr"`
	IdleTimeout string `yaml:"idleTimeout"`
}

// Notebookfile represents the structure of a notebook file.
type Notebookfile struct {
	Version string    `yaml:"version"`
	Cells   []CellDTO `yaml:"cells"`
}

// CellDTO represents a single notebook cell.
type CellDTO struct {
	ID      string `yaml:"id"`
	Type    string `yaml:"type"`
	Runtime string `yaml:"runtime"`
	Content string `yaml:"content"`
}
