package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/zerr"
)

// Disk persists module cache entries as one JSON file per resolved path.
type Disk struct {
	dir string
	now func() time.Time
}

// NewDisk creates a disk cache rooted at dir. The directory is created if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheCreateFailed.Error()), "dir", dir)
	}
	return &Disk{dir: dir, now: time.Now}, nil
}

// Dir returns the directory holding the cache entries.
func (d *Disk) Dir() string {
	return d.dir
}

// Get retrieves the entry for key.
// Returns nil, nil if not found.
func (d *Disk) Get(_ context.Context, key string) (*domain.LoadResult, error) {
	filename := d.filename(key)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrCacheReadFailed.Error())
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheUnmarshalFailed.Error()), "key", key)
	}

	if entry.Key != key || entry.Digest != digest(entry.Result) {
		return nil, zerr.With(domain.ErrCacheCorrupt, "key", key)
	}

	return &entry.Result, nil
}

// Set stores result under key, replacing any previous entry.
func (d *Disk) Set(_ context.Context, key string, result domain.LoadResult) error {
	entry := domain.CacheEntry{
		Key:      key,
		Result:   result,
		Digest:   digest(result),
		StoredAt: d.now().UTC().Truncate(time.Second),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheMarshalFailed.Error())
	}

	if err := writeAtomic(d.filename(key), data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key)
	}

	return nil
}

func (d *Disk) filename(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(d.dir, hex.EncodeToString(hash[:])+".json")
}

// writeAtomic writes data next to path and renames it into place,
// so concurrent readers never observe a partial entry.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func digest(result domain.LoadResult) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(string(result.Loader))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(result.ResolveDir)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(result.Contents)
	return h.Sum64()
}
