package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/jsbook/internal/adapters/config"
	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newLoader(t *testing.T) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return config.NewLoader(mockLogger)
}

func createFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	return path
}

func TestLoader_Load_Defaults(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	cfg, err := newLoader(t).Load(dir)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(dir), cfg)
}

func TestLoader_Load_Full(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	createFile(t, dir, domain.ConfigFileName, `
version: "1"
providers:
  unpkg: http://localhost:9000/
  skypack: https://cdn.example.com
cache:
  dir: tmp/modules
  persist: false
build:
  timeout: 5s
  define:
    __APP__: '"demo"'
preview:
  scripts:
    - https://cdn.tailwindcss.com
server:
  addr: 0.0.0.0:8080
  idleTimeout: 10m
`)

	cfg, err := newLoader(t).Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, "http://localhost:9000", cfg.Providers.Unpkg)
	assert.Equal(t, "https://cdn.example.com", cfg.Providers.Skypack)
	assert.Equal(t, filepath.Join(dir, "tmp", "modules"), cfg.Cache.Dir)
	assert.False(t, cfg.Cache.Persist)
	assert.Equal(t, 5*time.Second, cfg.Build.Timeout)
	assert.Equal(t, map[string]string{"__APP__": `"demo"`}, cfg.Build.Define)
	assert.Equal(t, []string{"https://cdn.tailwindcss.com"}, cfg.Preview.Scripts)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Server.IdleTimeout)
}

func TestLoader_Load_WalksUp(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	createFile(t, root, domain.ConfigFileName, "build:\n  timeout: 1s\n")

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, domain.DirPerm))

	cfg, err := newLoader(t).Load(nested)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, time.Second, cfg.Build.Timeout)
	assert.Equal(t, domain.DefaultCachePath(root), cfg.Cache.Dir)
}

func TestLoader_Load_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "invalid yaml", content: "build: [", wantErr: domain.ErrConfigParseFailed},
		{name: "bad duration", content: "build:\n  timeout: soon\n", wantErr: domain.ErrInvalidDuration},
		{name: "negative duration", content: "server:\n  idleTimeout: -1s\n", wantErr: domain.ErrInvalidDuration},
		{name: "relative provider", content: "providers:\n  unpkg: /cdn\n", wantErr: domain.ErrInvalidProviderURL},
		{name: "ftp provider", content: "providers:\n  skypack: ftp://cdn\n", wantErr: domain.ErrInvalidProviderURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			createFile(t, dir, domain.ConfigFileName, tt.content)

			_, err := newLoader(t).Load(dir)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr.Error())
		})
	}
}

func TestLoader_Load_WarnsOnVersion(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	createFile(t, dir, domain.ConfigFileName, "version: \"2\"\n")

	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any()).Times(1)

	_, err := config.NewLoader(mockLogger).Load(dir)
	require.NoError(t, err)
}
