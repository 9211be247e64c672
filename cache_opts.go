package jarcache

import (
	"log/slog"
	"os"

	"github.com/meigma/jarcache/archive"
	"github.com/meigma/jarcache/internal/tempdir"
	"github.com/meigma/jarcache/nativelib"
)

// Option configures a Cache.
type Option func(*Cache)

// WithExtractor sets the extractor used to unpack archives.
// Defaults to [DefaultExtractor].
func WithExtractor(e archive.Extractor) Option {
	return func(c *Cache) {
		c.extractor = e
	}
}

// WithTempRoot sets the parent of the cache directory.
// Defaults to os.TempDir().
func WithTempRoot(dir string) Option {
	return func(c *Cache) {
		c.tempOpts = append(c.tempOpts, tempdir.WithRoot(dir))
	}
}

// WithDirPerm sets the permissions of the cache directory. Defaults to 0o700.
func WithDirPerm(mode os.FileMode) Option {
	return func(c *Cache) {
		c.tempOpts = append(c.tempOpts, tempdir.WithDirPerm(mode))
	}
}

// WithPlatform selects the native library naming rules FindLibrary uses
// to decide whether a missed name may be probed on disk.
// Defaults to the running platform.
func WithPlatform(goos string) Option {
	return func(c *Cache) {
		c.platform = nativelib.For(goos)
	}
}

// WithCrossPlatformNames makes FindLibrary accept library file names
// decorated for any known platform, not just the configured one.
func WithCrossPlatformNames(enabled bool) Option {
	return func(c *Cache) {
		c.crossPlatform = enabled
	}
}

// WithLogger sets the logger for cache events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// withMkdirTemp replaces the directory factory. Used by tests to force
// initialization failures.
func withMkdirTemp(fn func(dir, pattern string) (string, error)) Option {
	return func(c *Cache) {
		c.tempOpts = append(c.tempOpts, tempdir.WithMkdirTemp(fn))
	}
}
