// Package tempdir owns the single writable directory an extraction cache
// unpacks into.
package tempdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	defaultPattern = "jarcache-"
	defaultDirPerm = 0o700
)

// Provider creates its directory at most once. A failed creation is
// permanent: later calls report the same error without retrying.
type Provider struct {
	root      string
	pattern   string
	dirPerm   os.FileMode
	mkdirTemp func(dir, pattern string) (string, error)

	once sync.Once
	dir  string
	err  error
}

// Option configures a Provider.
type Option func(*Provider)

// WithRoot sets the parent directory. Defaults to os.TempDir().
func WithRoot(dir string) Option {
	return func(p *Provider) {
		p.root = dir
	}
}

// WithPattern sets the os.MkdirTemp name pattern.
func WithPattern(pattern string) Option {
	return func(p *Provider) {
		p.pattern = pattern
	}
}

// WithDirPerm sets the permissions applied to the created directory.
func WithDirPerm(mode os.FileMode) Option {
	return func(p *Provider) {
		p.dirPerm = mode
	}
}

// WithMkdirTemp replaces os.MkdirTemp.
func WithMkdirTemp(fn func(dir, pattern string) (string, error)) Option {
	return func(p *Provider) {
		p.mkdirTemp = fn
	}
}

// New returns a Provider. No directory is created until Initialize.
func New(opts ...Option) *Provider {
	p := &Provider{
		pattern:   defaultPattern,
		dirPerm:   defaultDirPerm,
		mkdirTemp: os.MkdirTemp,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize creates the directory on the first call and returns the cached
// outcome on every later call.
func (p *Provider) Initialize() error {
	p.once.Do(func() {
		p.dir, p.err = p.create()
	})
	return p.err
}

// Valid reports whether Initialize ran and succeeded.
func (p *Provider) Valid() bool {
	return p.Initialize() == nil
}

// Dir returns the absolute directory path, or "" when not valid.
func (p *Provider) Dir() string {
	if !p.Valid() {
		return ""
	}
	return p.dir
}

// Remove deletes the directory and everything in it.
func (p *Provider) Remove() error {
	if !p.Valid() {
		return p.err
	}
	return os.RemoveAll(p.dir)
}

func (p *Provider) create() (string, error) {
	if p.mkdirTemp == nil {
		return "", errors.New("tempdir: no directory factory")
	}
	root := p.root
	if root == "" {
		root = os.TempDir()
	} else if err := os.MkdirAll(root, p.dirPerm); err != nil {
		return "", fmt.Errorf("create temp root %s: %w", root, err)
	}

	dir, err := p.mkdirTemp(root, p.pattern)
	if err != nil {
		return "", fmt.Errorf("create temp dir under %s: %w", root, err)
	}
	if !filepath.IsAbs(dir) {
		abs, absErr := filepath.Abs(dir)
		if absErr != nil {
			return "", fmt.Errorf("resolve temp dir %s: %w", dir, absErr)
		}
		dir = abs
	}
	if err := os.Chmod(dir, p.dirPerm); err != nil {
		return "", fmt.Errorf("chmod temp dir %s: %w", dir, err)
	}
	return dir, nil
}
