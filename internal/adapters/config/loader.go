// Package config provides the configuration and notebook loader for jsbook.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const supportedVersion = "1"

// Loader implements ports.ConfigLoader using YAML files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds jsbook.yaml in cwd or one of its parents and resolves it against the defaults.
// Without a config file the defaults rooted at cwd are returned.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	absCwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	configPath, found := findConfiguration(absCwd)
	if !found {
		l.Logger.Debug(fmt.Sprintf("no %s found, using defaults", domain.ConfigFileName))
		return domain.DefaultConfig(absCwd), nil
	}

	var file Configfile
	if err := readAndUnmarshalYAML(configPath, &file); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	l.warnVersion(configPath, file.Version)

	cfg, err := resolveConfig(filepath.Dir(configPath), &file)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	return cfg, nil
}

func findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		configPath := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
			return configPath, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

func resolveConfig(root string, file *Configfile) (*domain.Config, error) {
	cfg := domain.DefaultConfig(root)

	var err error
	if cfg.Providers.Unpkg, err = resolveProviderURL(file.Providers.Unpkg, cfg.Providers.Unpkg); err != nil {
		return nil, zerr.With(err, "provider", domain.ProviderUnpkg.String())
	}
	if cfg.Providers.Skypack, err = resolveProviderURL(file.Providers.Skypack, cfg.Providers.Skypack); err != nil {
		return nil, zerr.With(err, "provider", domain.ProviderSkypack.String())
	}

	if file.Cache.Dir != "" {
		cfg.Cache.Dir = resolvePath(root, file.Cache.Dir)
	}
	if file.Cache.Persist != nil {
		cfg.Cache.Persist = *file.Cache.Persist
	}

	if cfg.Build.Timeout, err = parseDuration("build.timeout", file.Build.Timeout, cfg.Build.Timeout); err != nil {
		return nil, err
	}
	if len(file.Build.Define) > 0 {
		cfg.Build.Define = file.Build.Define
	}

	cfg.Preview.Scripts = file.Preview.Scripts

	if file.Server.Addr != "" {
		cfg.Server.Addr = file.Server.Addr
	}
	if cfg.Server.IdleTimeout, err = parseDuration(
		"server.idleTimeout", file.Server.IdleTimeout, cfg.Server.IdleTimeout,
	); err != nil {
		return nil, err
	}

	return cfg, nil
}

func resolveProviderURL(raw, fallback string) (string, error) {
	if raw == "" {
		return fallback, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrInvalidProviderURL.Error()), "url", raw)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", zerr.With(domain.ErrInvalidProviderURL, "url", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

func parseDuration(field, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		invalidErr := zerr.With(domain.ErrInvalidDuration, "field", field)
		return 0, zerr.With(invalidErr, "value", raw)
	}
	return d, nil
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(root, p))
}

func (l *Loader) warnVersion(path, version string) {
	if version != "" && version != supportedVersion {
		l.Logger.Warn(fmt.Sprintf("%s declares version %q, expected %q", path, version, supportedVersion))
	}
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](path string, target *T) error {
	// #nosec G304 -- path is validated by caller
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "reason", "not found")
		}
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(data, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
