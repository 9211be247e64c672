package jarcache

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/meigma/jarcache/archive"
	"github.com/meigma/jarcache/extract"
	"github.com/meigma/jarcache/extract/jar"
	"github.com/meigma/jarcache/extract/stargz"
	"github.com/meigma/jarcache/internal/ledger"
	"github.com/meigma/jarcache/internal/libindex"
	"github.com/meigma/jarcache/internal/tempdir"
	"github.com/meigma/jarcache/nativelib"
)

// Cache unpacks archives into a single temporary directory and answers
// name lookups against what it unpacked.
//
// Each (archive, category) pair is extracted at most once, even under
// concurrent use. The directory is created lazily by the first operation;
// if that fails the Cache is permanently invalid and every operation
// reports failure without touching the filesystem again.
type Cache struct {
	extractor     archive.Extractor
	tempOpts      []tempdir.Option
	platform      nativelib.Platform
	crossPlatform bool
	logger        *slog.Logger

	lifecycle sync.RWMutex
	closed    bool

	initOnce sync.Once
	started  bool
	initErr  error
	dir      *tempdir.Provider
	ledger   *ledger.Ledger
	libs     *libindex.Index
}

// Stats summarizes cache contents.
type Stats struct {
	NativeArchives   int
	ClassArchives    int
	ResourceArchives int
	Libraries        int
}

// New creates a Cache. No directory is created until the first operation
// or an explicit call to Init.
func New(opts ...Option) *Cache {
	c := &Cache{
		platform: nativelib.Host(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.extractor == nil {
		c.extractor = DefaultExtractor(extract.WithPlatform(c.platform.GOOS), extract.WithLogger(c.logger))
	}
	c.dir = tempdir.New(c.tempOpts...)
	return c
}

// DefaultExtractor returns an extractor for zip/JAR archives and eStargz
// blobs, selected by the archive's sniffed media type.
func DefaultExtractor(opts ...extract.Option) archive.Extractor {
	return extract.NewRouter().
		Handle(jar.New(opts...), jar.MediaTypes...).
		Handle(stargz.New(opts...), stargz.MediaTypes...)
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Cache) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// Init creates the cache directory if this has not been attempted yet and
// returns the outcome. Only the first call does any work.
func (c *Cache) Init() error {
	c.lifecycle.RLock()
	defer c.lifecycle.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return c.initialize()
}

func (c *Cache) initialize() error {
	c.initOnce.Do(func() {
		c.started = true
		if err := c.dir.Initialize(); err != nil {
			c.initErr = &InitError{Err: err}
			c.log().Error("cache directory unavailable; cache disabled", "error", err)
			return
		}
		c.ledger = ledger.New()
		c.libs = libindex.New()
		c.log().Debug("cache directory created", "dir", c.dir.Dir())
	})
	return c.initErr
}

// Valid reports whether the cache is usable. It triggers initialization.
func (c *Cache) Valid() bool {
	c.lifecycle.RLock()
	defer c.lifecycle.RUnlock()
	return !c.closed && c.initialize() == nil
}

// TempDir returns the cache directory, or "" if the cache is not usable.
func (c *Cache) TempDir() string {
	release, err := c.acquire()
	if err != nil {
		return ""
	}
	defer release()
	return c.dir.Dir()
}

// Contains reports whether native libraries were extracted from a.
// Class file and resource extraction are not considered.
func (c *Cache) Contains(a *archive.Archive) bool {
	if a == nil {
		return false
	}
	release, err := c.acquire()
	if err != nil {
		return false
	}
	defer release()
	return c.ledger.Has(a.Key(), archive.NativeLibrary)
}

// AddNativeLibs extracts the native libraries of a unless already done and
// records each one for FindLibrary. It reports whether an extraction ran.
func (c *Cache) AddNativeLibs(a *archive.Archive) (bool, error) {
	return c.add(a, archive.Of(archive.NativeLibrary))
}

// AddClasses extracts the class files of a unless already done.
// It reports whether an extraction ran.
func (c *Cache) AddClasses(a *archive.Archive) (bool, error) {
	return c.add(a, archive.Of(archive.ClassFile))
}

// AddResources extracts the resources of a unless already done.
// It reports whether an extraction ran.
func (c *Cache) AddResources(a *archive.Archive) (bool, error) {
	return c.add(a, archive.Of(archive.Resource))
}

// AddAll extracts every category of a not yet extracted, in a single pass
// over the archive. It reports whether any category was newly extracted.
func (c *Cache) AddAll(a *archive.Archive) (bool, error) {
	return c.add(a, archive.All)
}

func (c *Cache) add(a *archive.Archive, want archive.Categories) (bool, error) {
	if a == nil {
		return false, errors.New("jarcache: nil archive")
	}
	release, err := c.acquire()
	if err != nil {
		return false, err
	}
	defer release()

	key := a.Key()
	if c.ledger.Pending(key, want).IsEmpty() {
		return false, nil
	}

	unlock := c.ledger.Lock(want)
	defer unlock()

	// Re-check under the category locks; another caller may have finished.
	pending := c.ledger.Pending(key, want)
	if pending.IsEmpty() {
		return false, nil
	}

	var libs archive.LibraryRecorder
	if pending.Has(archive.NativeLibrary) {
		libs = c.libs
	}

	start := time.Now()
	if err := c.extractor.Extract(c.dir.Dir(), libs, a, pending); err != nil {
		c.log().Warn("extraction failed", "archive", a.String(), "categories", pending.String(), "error", err)
		return false, &ExtractionError{Archive: a, Categories: pending, Err: err}
	}
	c.ledger.Mark(key, pending)

	c.log().Debug("extracted archive",
		"archive", a.String(),
		"categories", pending.String(),
		"duration", time.Since(start))
	return true, nil
}

// FindLibrary returns the path of the native library with the given logical
// name.
//
// Names recorded during native library extraction win. Otherwise, if name
// itself looks like a decorated library file name (such as "libfoo.so"),
// a file with exactly that name directly in the cache directory is returned.
func (c *Cache) FindLibrary(name string) (string, bool) {
	release, err := c.acquire()
	if err != nil {
		return "", false
	}
	defer release()

	if p, ok := c.libs.Get(name); ok {
		return p, true
	}
	if !c.isLibraryName(name) {
		return "", false
	}
	return c.probe(name)
}

// FindResource returns the path of the file at the slash-separated name
// inside the cache directory. Names that are not valid relative paths
// never match.
func (c *Cache) FindResource(name string) (string, bool) {
	release, err := c.acquire()
	if err != nil {
		return "", false
	}
	defer release()

	if !fs.ValidPath(name) || name == "." {
		return "", false
	}
	return c.probe(filepath.FromSlash(name))
}

// FindClass returns the path of the extracted class file for a binary class
// name such as "com.example.Foo".
func (c *Cache) FindClass(binaryName string) (string, bool) {
	if binaryName == "" {
		return "", false
	}
	return c.FindResource(extract.ClassFileName(binaryName))
}

// Stats returns current counts. A cache that is not usable reports zeros.
func (c *Cache) Stats() Stats {
	release, err := c.acquire()
	if err != nil {
		return Stats{}
	}
	defer release()
	return Stats{
		NativeArchives:   c.ledger.Len(archive.NativeLibrary),
		ClassArchives:    c.ledger.Len(archive.ClassFile),
		ResourceArchives: c.ledger.Len(archive.Resource),
		Libraries:        c.libs.Len(),
	}
}

// Libraries returns a copy of the logical name to path mapping.
func (c *Cache) Libraries() map[string]string {
	release, err := c.acquire()
	if err != nil {
		return nil
	}
	defer release()
	return c.libs.Snapshot()
}

// Close removes the cache directory. It waits for running operations;
// afterwards every operation fails with ErrClosed or reports not found.
// Closing a Cache that never created its directory does no I/O.
func (c *Cache) Close() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.initOnce.Do(func() {}) // a closed cache never creates its directory
	if !c.started || c.initErr != nil {
		return nil
	}
	c.log().Debug("removing cache directory", "dir", c.dir.Dir())
	return c.dir.Remove()
}

// acquire holds the cache open for one operation and makes sure it is
// initialized.
func (c *Cache) acquire() (release func(), err error) {
	c.lifecycle.RLock()
	if c.closed {
		c.lifecycle.RUnlock()
		return nil, ErrClosed
	}
	if err := c.initialize(); err != nil {
		c.lifecycle.RUnlock()
		return nil, err
	}
	return c.lifecycle.RUnlock, nil
}

func (c *Cache) isLibraryName(name string) bool {
	if _, ok := c.platform.Base(name); ok {
		return true
	}
	if c.crossPlatform {
		_, ok := nativelib.BaseAny(name)
		return ok
	}
	return false
}

// probe stats rel under the cache directory.
func (c *Cache) probe(rel string) (string, bool) {
	p := filepath.Join(c.dir.Dir(), rel)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}
