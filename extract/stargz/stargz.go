// Package stargz extracts eStargz archives (gzip or zstd:chunked) into the
// cache directory, reading entries through the archive's table of contents.
package stargz

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/containerd/stargz-snapshotter/estargz"
	"github.com/containerd/stargz-snapshotter/estargz/zstdchunked"

	"github.com/meigma/jarcache/archive"
	"github.com/meigma/jarcache/extract"
)

// MediaTypes lists the media types this extractor handles.
var MediaTypes = []string{archive.MediaTypeStargzGzip, archive.MediaTypeStargzZstd}

// Extractor implements [archive.Extractor] for eStargz blobs.
type Extractor struct {
	cfg *extract.Config
}

// New creates an eStargz extractor.
func New(opts ...extract.Option) *Extractor {
	return &Extractor{cfg: extract.NewConfig(opts...)}
}

// Extract implements [archive.Extractor].
func (e *Extractor) Extract(dest string, libs archive.LibraryRecorder, a *archive.Archive, want archive.Categories) error {
	if want.IsEmpty() {
		return nil
	}
	f, err := os.Open(a.Path())
	if err != nil {
		return fmt.Errorf("open stargz %s: %w", a.Path(), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	r, err := estargz.Open(io.NewSectionReader(f, 0, info.Size()),
		estargz.WithDecompressors(new(zstdchunked.Decompressor)))
	if err != nil {
		return fmt.Errorf("open stargz %s: %w", a.Path(), err)
	}

	root, ok := r.Lookup("")
	if !ok {
		return fmt.Errorf("open stargz %s: missing root entry", a.Path())
	}
	var entries []extract.Entry
	collect(r, root, "", &entries)

	if err := extract.Unpack(dest, libs, want, entries, e.cfg); err != nil {
		return fmt.Errorf("extract %s: %w", a.Path(), err)
	}
	return nil
}

// collect walks the TOC below dir and appends every regular file.
func collect(r *estargz.Reader, dir *estargz.TOCEntry, dirPath string, out *[]extract.Entry) {
	dir.ForeachChild(func(name string, child *estargz.TOCEntry) bool {
		childPath := path.Join(dirPath, name)
		switch child.Type {
		case "dir":
			collect(r, child, childPath, out)
		case "reg":
			*out = append(*out, extract.Entry{
				Name: childPath,
				Mode: child.Stat().Mode().Perm(),
				Size: uint64(max(child.Size, 0)),
				Open: func() (io.ReadCloser, error) {
					sr, err := r.OpenFile(childPath)
					if err != nil {
						return nil, err
					}
					return io.NopCloser(sr), nil
				},
			})
		}
		return true
	})
}
