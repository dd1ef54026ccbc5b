package cache_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/jsbook/internal/adapters/cache"
	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports"
	"go.trai.ch/jsbook/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const reactKey = "https://unpkg.com/react"

var reactResult = domain.LoadResult{
	Loader:     domain.LoaderJSX,
	Contents:   "export default {};",
	ResolveDir: "/react@18.2.0",
}

func TestModuleCache_SetGet(t *testing.T) {
	t.Parallel()

	newCaches := map[string]func(t *testing.T) ports.ModuleCache{
		"memory": func(_ *testing.T) ports.ModuleCache { return cache.NewMemory() },
		"disk": func(t *testing.T) ports.ModuleCache {
			d, err := cache.NewDisk(t.TempDir())
			require.NoError(t, err)
			return d
		},
		"layered": func(t *testing.T) ports.ModuleCache {
			d, err := cache.NewDisk(t.TempDir())
			require.NoError(t, err)
			return cache.NewLayered(cache.NewMemory(), d)
		},
	}

	for name, newCache := range newCaches {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			c := newCache(t)

			got, err := c.Get(ctx, reactKey)
			require.NoError(t, err)
			assert.Nil(t, got)

			require.NoError(t, c.Set(ctx, reactKey, reactResult))

			got, err = c.Get(ctx, reactKey)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, reactResult, *got)

			updated := reactResult
			updated.Contents = "export default 1;"
			require.NoError(t, c.Set(ctx, reactKey, updated))

			got, err = c.Get(ctx, reactKey)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, updated, *got)
		})
	}
}

func TestMemory_ConcurrentSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := cache.NewMemory()

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			_ = m.Set(ctx, reactKey, reactResult)
			_, _ = m.Get(ctx, reactKey)
		})
	}
	wg.Wait()

	assert.Equal(t, 1, m.Len())
}

func TestDisk_PersistsAcrossInstances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	first, err := cache.NewDisk(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, reactKey, reactResult))

	second, err := cache.NewDisk(dir)
	require.NoError(t, err)
	got, err := second.Get(ctx, reactKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, reactResult, *got)
}

func TestDisk_Corruption(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T) (*cache.Disk, string) {
		t.Helper()
		dir := t.TempDir()
		d, err := cache.NewDisk(dir)
		require.NoError(t, err)
		require.NoError(t, d.Set(ctx, reactKey, reactResult))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		return d, filepath.Join(dir, entries[0].Name())
	}

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		d, filename := setup(t)
		require.NoError(t, os.WriteFile(filename, []byte("{ invalid json"), 0o600))

		_, err := d.Get(ctx, reactKey)
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrCacheUnmarshalFailed.Error())
	})

	t.Run("digest mismatch", func(t *testing.T) {
		t.Parallel()
		d, filename := setup(t)

		data, err := os.ReadFile(filename) //nolint:gosec // test file
		require.NoError(t, err)
		var entry domain.CacheEntry
		require.NoError(t, json.Unmarshal(data, &entry))
		assert.Equal(t, reactKey, entry.Key)
		assert.False(t, entry.StoredAt.IsZero())

		entry.Result.Contents = "tampered"
		data, err = json.Marshal(entry)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filename, data, 0o600))

		_, err = d.Get(ctx, reactKey)
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrCacheCorrupt.Error())
	})
}

func TestNewDisk_CreateFailed(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := cache.NewDisk(filepath.Join(file, "cache"))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrCacheCreateFailed.Error())
}

func TestLayered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("back hit is promoted", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		front := mocks.NewMockModuleCache(ctrl)
		back := mocks.NewMockModuleCache(ctrl)

		front.EXPECT().Get(ctx, reactKey).Return(nil, nil)
		back.EXPECT().Get(ctx, reactKey).Return(&reactResult, nil)
		front.EXPECT().Set(ctx, reactKey, reactResult).Return(nil)

		got, err := cache.NewLayered(front, back).Get(ctx, reactKey)
		require.NoError(t, err)
		assert.Equal(t, reactResult, *got)
	})

	t.Run("front hit skips back", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		front := mocks.NewMockModuleCache(ctrl)
		back := mocks.NewMockModuleCache(ctrl)

		front.EXPECT().Get(ctx, reactKey).Return(&reactResult, nil)

		got, err := cache.NewLayered(front, back).Get(ctx, reactKey)
		require.NoError(t, err)
		assert.Equal(t, reactResult, *got)
	})

	t.Run("back error is returned", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		front := mocks.NewMockModuleCache(ctrl)
		back := mocks.NewMockModuleCache(ctrl)

		front.EXPECT().Get(ctx, reactKey).Return(nil, nil)
		back.EXPECT().Get(ctx, reactKey).Return(nil, domain.ErrCacheCorrupt)

		_, err := cache.NewLayered(front, back).Get(ctx, reactKey)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCacheCorrupt)
	})

	t.Run("set writes both layers", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		front := mocks.NewMockModuleCache(ctrl)
		back := mocks.NewMockModuleCache(ctrl)

		front.EXPECT().Set(ctx, reactKey, reactResult).Return(nil)
		back.EXPECT().Set(ctx, reactKey, reactResult).Return(errors.New("disk full"))

		err := cache.NewLayered(front, back).Set(ctx, reactKey, reactResult)
		require.Error(t, err)
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	c, err := cache.Open(domain.CacheConfig{Persist: false})
	require.NoError(t, err)
	assert.IsType(t, &cache.Memory{}, c)

	dir := filepath.Join(t.TempDir(), ".jsbook", "cache")
	c, err = cache.Open(domain.CacheConfig{Dir: dir, Persist: true})
	require.NoError(t, err)
	assert.IsType(t, &cache.Layered{}, c)
	assert.DirExists(t, dir)
}
