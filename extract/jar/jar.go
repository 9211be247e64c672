// Package jar extracts zip and JAR archives into the cache directory.
//
// Entries may be stored, deflated, or compressed with zstd (zip methods 93
// and 20).
package jar

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/meigma/jarcache/archive"
	"github.com/meigma/jarcache/extract"
	"github.com/meigma/jarcache/internal/zstdpool"
)

// MediaTypes lists the media types this extractor handles.
var MediaTypes = []string{archive.MediaTypeJAR}

// Extractor implements [archive.Extractor] for zip-based archives.
type Extractor struct {
	cfg  *extract.Config
	zstd *zstdpool.Pool
}

// New creates a zip/JAR extractor.
func New(opts ...extract.Option) *Extractor {
	return &Extractor{
		cfg:  extract.NewConfig(opts...),
		zstd: zstdpool.New(zstdpool.DefaultMaxMemory),
	}
}

// Extract implements [archive.Extractor].
func (e *Extractor) Extract(dest string, libs archive.LibraryRecorder, a *archive.Archive, want archive.Categories) error {
	if want.IsEmpty() {
		return nil
	}
	zr, err := zip.OpenReader(a.Path())
	if err != nil {
		return fmt.Errorf("open zip %s: %w", a.Path(), err)
	}
	defer zr.Close()

	dec := e.zstd.ZipDecompressor()
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, dec)
	zr.RegisterDecompressor(zstd.ZipMethodPKWare, dec)

	entries := make([]extract.Entry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, extract.Entry{
			Name: f.Name,
			Mode: f.Mode().Perm(),
			Size: f.UncompressedSize64,
			Open: func() (io.ReadCloser, error) { return f.Open() },
		})
	}

	if err := extract.Unpack(dest, libs, want, entries, e.cfg); err != nil {
		return fmt.Errorf("extract %s: %w", a.Path(), err)
	}
	return nil
}
