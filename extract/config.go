package extract

import (
	"log/slog"
	"runtime"

	"github.com/meigma/jarcache/nativelib"
)

// DefaultMaxFileSize is the default per-entry size limit (256MB).
const DefaultMaxFileSize = 256 << 20

// Config is the resolved configuration of an extractor.
type Config struct {
	Platform    nativelib.Platform
	MaxFileSize uint64
	Workers     int
	Overwrite   bool
	Logger      *slog.Logger
}

// Option configures an extractor.
type Option func(*Config)

// WithPlatform selects the native library naming rules by GOOS.
// Defaults to the running platform.
func WithPlatform(goos string) Option {
	return func(c *Config) {
		c.Platform = nativelib.For(goos)
	}
}

// WithMaxFileSize limits the uncompressed size of a single entry.
// Set to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(c *Config) {
		c.MaxFileSize = limit
	}
}

// WithWorkers sets how many entries are written concurrently.
// Values < 1 force serial writes.
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n < 1 {
			n = 1
		}
		c.Workers = n
	}
}

// WithOverwrite replaces files that already exist in the destination.
// By default, existing files are left untouched.
func WithOverwrite(overwrite bool) Option {
	return func(c *Config) {
		c.Overwrite = overwrite
	}
}

// WithLogger sets the logger for extraction events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// NewConfig applies opts over the defaults.
func NewConfig(opts ...Option) *Config {
	c := &Config{
		Platform:    nativelib.Host(),
		MaxFileSize: DefaultMaxFileSize,
		Workers:     runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Config) log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
