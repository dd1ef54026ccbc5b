package domain

import "path/filepath"

const (
	// JsbookDirName is the name of the internal workspace directory.
	JsbookDirName = ".jsbook"

	// CacheDirName is the name of the module cache directory.
	CacheDirName = "cache"

	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "jsbook.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultCachePath returns the default module cache directory under root.
// It joins root, .jsbook and cache.
func DefaultCachePath(root string) string {
	return filepath.Join(root, JsbookDirName, CacheDirName)
}
