// Package archive defines the types shared by the extraction cache and the
// extractors that unpack archives into it.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Media types reported by [Archive.MediaType].
const (
	MediaTypeJAR     = "application/java-archive"
	MediaTypeUnknown = "application/octet-stream"

	MediaTypeStargzGzip = ocispec.MediaTypeImageLayerGzip
	MediaTypeStargzZstd = ocispec.MediaTypeImageLayerZstd
)

var (
	zipMagic      = []byte("PK\x03\x04")
	zipEmptyMagic = []byte("PK\x05\x06")
	gzipMagic     = []byte{0x1f, 0x8b}
	zstdMagic     = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Archive identifies a source archive on disk.
//
// Identity is the content digest, so two handles opened on the same bytes
// (through different paths or symlinks) compare equal under [Archive.Key].
type Archive struct {
	path      string
	digest    digest.Digest
	mediaType string
}

// Open resolves path to its canonical absolute form, hashes its content,
// and sniffs its media type.
func Open(path string) (*Archive, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	f, err := os.Open(canonical) //nolint:gosec // caller-provided archive path
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &os.PathError{Op: "open archive", Path: canonical, Err: errors.New("is a directory")}
	}

	var head [4]byte
	n, err := io.ReadFull(f, head[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", canonical, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", canonical, err)
	}

	dgst, err := digest.SHA256.FromReader(f)
	if err != nil {
		return nil, fmt.Errorf("digest %s: %w", canonical, err)
	}

	return &Archive{
		path:      canonical,
		digest:    dgst,
		mediaType: sniff(head[:n]),
	}, nil
}

// New builds a handle from already-known identity without touching the
// filesystem. An empty mediaType is reported as [MediaTypeUnknown].
func New(path string, dgst digest.Digest, mediaType string) *Archive {
	if mediaType == "" {
		mediaType = MediaTypeUnknown
	}
	return &Archive{path: path, digest: dgst, mediaType: mediaType}
}

// Path returns the canonical path of the archive.
func (a *Archive) Path() string { return a.path }

// Digest returns the content digest of the archive.
func (a *Archive) Digest() digest.Digest { return a.digest }

// MediaType returns the sniffed media type.
func (a *Archive) MediaType() string { return a.mediaType }

// Key returns the dedup key used by the cache.
func (a *Archive) Key() string { return a.digest.String() }

// String returns the path and short digest, for logs.
func (a *Archive) String() string {
	enc := a.digest.Encoded()
	if len(enc) > 12 {
		enc = enc[:12]
	}
	return fmt.Sprintf("%s@%s", a.path, enc)
}

func sniff(head []byte) string {
	switch {
	case bytes.HasPrefix(head, zipMagic), bytes.HasPrefix(head, zipEmptyMagic):
		return MediaTypeJAR
	case bytes.HasPrefix(head, gzipMagic):
		return MediaTypeStargzGzip
	case bytes.HasPrefix(head, zstdMagic):
		return MediaTypeStargzZstd
	default:
		return MediaTypeUnknown
	}
}
