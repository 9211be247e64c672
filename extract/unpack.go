package extract

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/jarcache/archive"
)

// Entry is a regular file listed by a format-specific extractor.
type Entry struct {
	// Name is the slash-separated path inside the archive.
	Name string
	// Mode carries the permission bits recorded in the archive, if any.
	Mode fs.FileMode
	// Size is the declared uncompressed size, or 0 if unknown.
	Size uint64
	// Open returns the uncompressed content. It must be safe to call from
	// several goroutines for different entries.
	Open func() (io.ReadCloser, error)
}

// Unpack writes the entries whose category is in want into dest and records
// every native library written in libs. libs may be nil when no native
// library entry is selected. Entries whose names are not valid relative
// slash paths are skipped.
//
// Entries are written concurrently, up to cfg.Workers at a time. The first
// failure stops the remaining work and is returned; files already committed
// stay in place.
func Unpack(dest string, libs archive.LibraryRecorder, want archive.Categories, entries []Entry, cfg *Config) error {
	if cfg == nil {
		cfg = NewConfig()
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolve destination %s: %w", dest, err)
	}

	// Native libraries are recorded in entry order once every write has
	// finished, so the mapping for a name never depends on scheduling.
	type task struct {
		entry    *Entry
		category archive.Category
		libName  string
	}
	tasks := make([]task, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		category, libName, ok := Classify(entry.Name, cfg.Platform)
		if !ok || !want.Has(category) {
			continue
		}
		if !fs.ValidPath(entry.Name) {
			cfg.log().Warn("skipping entry with invalid path", "name", entry.Name)
			continue
		}
		if category == archive.NativeLibrary && libs == nil {
			return fmt.Errorf("extract %s: native library selected without a library recorder", entry.Name)
		}
		tasks = append(tasks, task{entry: entry, category: category, libName: libName})
	}

	start := time.Now()
	sink := newFileSink(absDest, cfg.Overwrite)

	g, ctx := errgroup.WithContext(context.Background())
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	var written, skipped int64
	var countMu sync.Mutex
	count := func(didWrite bool) {
		countMu.Lock()
		defer countMu.Unlock()
		if didWrite {
			written++
		} else {
			skipped++
		}
	}

	for _, t := range tasks {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			didWrite, err := writeEntry(sink, t.entry, cfg.MaxFileSize)
			if err != nil {
				return err
			}
			count(didWrite)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, t := range tasks {
		if t.category == archive.NativeLibrary {
			libs.Put(t.libName, sink.destPath(t.entry.Name))
		}
	}

	cfg.log().Debug("unpacked entries",
		"dest", absDest,
		"categories", want.String(),
		"written", written,
		"skipped", skipped,
		"duration", time.Since(start))
	return nil
}

// writeEntry copies one entry through the sink. It reports false when the
// destination already existed and was left alone.
func writeEntry(sink *fileSink, entry *Entry, maxFileSize uint64) (bool, error) {
	if !sink.shouldWrite(entry.Name) {
		return false, nil
	}
	if maxFileSize != 0 && entry.Size > maxFileSize {
		return false, fmt.Errorf("extract %s: %w (%d > %d bytes)", entry.Name, ErrFileTooLarge, entry.Size, maxFileSize)
	}

	rc, err := entry.Open()
	if err != nil {
		return false, fmt.Errorf("open %s: %w", entry.Name, err)
	}
	defer rc.Close()

	w, err := sink.writer(entry.Name, entry.Mode)
	if err != nil {
		return false, err
	}

	var src io.Reader = rc
	if maxFileSize != 0 {
		src = io.LimitReader(rc, int64(maxFileSize)+1) //nolint:gosec // limit fits in int64
	}
	n, err := io.Copy(w, src)
	if err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return false, fmt.Errorf("copy %s: %w", entry.Name, err)
	}
	if maxFileSize != 0 && uint64(n) > maxFileSize { //nolint:gosec // n is non-negative
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return false, fmt.Errorf("extract %s: %w (more than %d bytes)", entry.Name, ErrFileTooLarge, maxFileSize)
	}
	if err := w.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
