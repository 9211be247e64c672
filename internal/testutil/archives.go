// Package testutil builds archive fixtures for tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/containerd/stargz-snapshotter/estargz"
	"github.com/containerd/stargz-snapshotter/estargz/zstdchunked"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// MethodZstd is the zip method number for zstd-compressed entries.
const MethodZstd = zstd.ZipMethodWinZip

// File is one entry of a fixture archive. Names ending in "/" are
// directories.
type File struct {
	Name   string
	Data   []byte
	Mode   fs.FileMode
	Method uint16
}

// WriteJar writes a zip archive named name under dir and returns its path.
func WriteJar(tb testing.TB, dir, name string, files ...File) string {
	tb.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(MethodZstd, zstd.ZipCompressor())
	for _, f := range files {
		hdr := &zip.FileHeader{Name: f.Name, Method: f.Method}
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		if strings.HasSuffix(f.Name, "/") {
			mode |= fs.ModeDir
			hdr.Method = zip.Store
		}
		hdr.SetMode(mode)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			tb.Fatalf("create zip entry %s: %v", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			tb.Fatalf("write zip entry %s: %v", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("close zip: %v", err)
	}
	return writeFile(tb, dir, name, buf.Bytes())
}

// WriteStargz writes an eStargz blob named name under dir and returns its
// path. With zstdChunked set the blob uses zstd:chunked compression instead
// of gzip.
func WriteStargz(tb testing.TB, dir, name string, zstdChunked bool, files ...File) string {
	tb.Helper()

	tarData := buildTar(tb, files)
	sr := io.NewSectionReader(bytes.NewReader(tarData), 0, int64(len(tarData)))

	var opts []estargz.Option
	if zstdChunked {
		opts = append(opts, estargz.WithCompression(&zstdChunkedCompression{
			Compressor:   &zstdchunked.Compressor{CompressionLevel: zstd.SpeedDefault},
			Decompressor: &zstdchunked.Decompressor{},
		}))
	}
	rc, err := estargz.Build(sr, opts...)
	if err != nil {
		tb.Fatalf("build estargz: %v", err)
	}
	defer rc.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, rc); err != nil {
		tb.Fatalf("read estargz: %v", err)
	}
	return writeFile(tb, dir, name, out.Bytes())
}

type zstdChunkedCompression struct {
	*zstdchunked.Compressor
	*zstdchunked.Decompressor
}

func buildTar(tb testing.TB, files []File) []byte {
	tb.Helper()

	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	dirs := map[string]bool{}
	for _, f := range sorted {
		for _, d := range parents(f.Name) {
			if dirs[d] {
				continue
			}
			dirs[d] = true
			if err := tw.WriteHeader(&tar.Header{Typeflag: tar.TypeDir, Name: d + "/", Mode: 0o755}); err != nil {
				tb.Fatalf("write tar dir %s: %v", d, err)
			}
		}
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		hdr := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     f.Name,
			Mode:     int64(mode.Perm()),
			Size:     int64(len(f.Data)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			tb.Fatalf("write tar header %s: %v", f.Name, err)
		}
		if _, err := tw.Write(f.Data); err != nil {
			tb.Fatalf("write tar entry %s: %v", f.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		tb.Fatalf("close tar: %v", err)
	}
	return buf.Bytes()
}

// parents returns the ancestor directories of name, outermost first.
func parents(name string) []string {
	var out []string
	dir := path.Dir(strings.TrimSuffix(name, "/"))
	for dir != "." && dir != "/" && dir != "" {
		out = append([]string{dir}, out...)
		dir = path.Dir(dir)
	}
	return out
}

func writeFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		tb.Fatalf("write %s: %v", p, err)
	}
	return p
}

// ReadFile returns the content of path, failing the test on error.
func ReadFile(tb testing.TB, path string) []byte {
	tb.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test fixture path
	if err != nil {
		tb.Fatalf("read %s: %v", path, err)
	}
	return data
}
