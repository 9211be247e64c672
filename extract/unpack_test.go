package extract

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/jarcache/archive"
)

type recorder struct {
	mu   sync.Mutex
	libs map[string]string
}

func newRecorder() *recorder {
	return &recorder{libs: map[string]string{}}
}

func (r *recorder) Put(name, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.libs[name] = path
}

func memEntry(name, content string) Entry {
	return Entry{
		Name: name,
		Mode: 0o644,
		Size: uint64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func testEntries() []Entry {
	return []Entry{
		memEntry("libfoo.so", "native foo"),
		memEntry("com/example/Foo.class", "class foo"),
		memEntry("assets/a.txt", "resource a"),
		memEntry("META-INF/MANIFEST.MF", "manifest"),
	}
}

func linuxConfig(opts ...Option) *Config {
	return NewConfig(append([]Option{WithPlatform("linux")}, opts...)...)
}

func TestUnpackFiltersByCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    archive.Categories
		present []string
		absent  []string
	}{
		{
			name:    "native only",
			want:    archive.Of(archive.NativeLibrary),
			present: []string{"libfoo.so"},
			absent:  []string{"com/example/Foo.class", "assets/a.txt"},
		},
		{
			name:    "classes only",
			want:    archive.Of(archive.ClassFile),
			present: []string{"com/example/Foo.class"},
			absent:  []string{"libfoo.so", "assets/a.txt"},
		},
		{
			name:    "resources only",
			want:    archive.Of(archive.Resource),
			present: []string{"assets/a.txt"},
			absent:  []string{"libfoo.so", "com/example/Foo.class", "META-INF/MANIFEST.MF"},
		},
		{
			name:    "all",
			want:    archive.All,
			present: []string{"libfoo.so", "com/example/Foo.class", "assets/a.txt"},
			absent:  []string{"META-INF/MANIFEST.MF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dest := t.TempDir()
			rec := newRecorder()
			require.NoError(t, Unpack(dest, rec, tt.want, testEntries(), linuxConfig()))

			for _, p := range tt.present {
				_, err := os.Stat(filepath.Join(dest, filepath.FromSlash(p)))
				assert.NoError(t, err, p)
			}
			for _, p := range tt.absent {
				_, err := os.Stat(filepath.Join(dest, filepath.FromSlash(p)))
				assert.True(t, os.IsNotExist(err), p)
			}
		})
	}
}

func TestUnpackRecordsNativeLibraries(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	rec := newRecorder()
	require.NoError(t, Unpack(dest, rec, archive.All, testEntries(), linuxConfig()))

	want := filepath.Join(dest, "libfoo.so")
	assert.Equal(t, map[string]string{"foo": want}, rec.libs)
	got, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "native foo", string(got))
}

func TestUnpackNoRecorderForClasses(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	require.NoError(t, Unpack(dest, nil, archive.Of(archive.ClassFile, archive.Resource), testEntries(), linuxConfig()))
	assert.Error(t, Unpack(dest, nil, archive.Of(archive.NativeLibrary), testEntries(), linuxConfig()))

	// Asking for every category is fine when no native library is present.
	noLibs := []Entry{memEntry("assets/b.txt", "b"), memEntry("com/example/Bar.class", "class bar")}
	require.NoError(t, Unpack(dest, nil, archive.All, noLibs, linuxConfig()))
	assert.Equal(t, "b", readString(t, filepath.Join(dest, "assets", "b.txt")))
}

func TestUnpackSkipsExistingFiles(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	target := filepath.Join(dest, "assets", "a.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o750))
	require.NoError(t, os.WriteFile(target, []byte("keep me"), 0o600))

	require.NoError(t, Unpack(dest, nil, archive.Of(archive.Resource), testEntries(), linuxConfig()))
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(got))

	require.NoError(t, Unpack(dest, nil, archive.Of(archive.Resource), testEntries(), linuxConfig(WithOverwrite(true))))
	got, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "resource a", string(got))
}

func TestUnpackRecordsExistingLibrary(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "libfoo.so"), []byte("old"), 0o600))

	rec := newRecorder()
	require.NoError(t, Unpack(dest, rec, archive.Of(archive.NativeLibrary), testEntries(), linuxConfig()))
	assert.Equal(t, filepath.Join(dest, "libfoo.so"), rec.libs["foo"])
}

func TestUnpackMaxFileSize(t *testing.T) {
	t.Parallel()

	big := memEntry("big.bin", strings.Repeat("x", 64))

	dest := t.TempDir()
	err := Unpack(dest, nil, archive.All, []Entry{big}, linuxConfig(WithMaxFileSize(16)))
	require.ErrorIs(t, err, ErrFileTooLarge)

	// A lying declared size is caught while copying.
	big.Size = 1
	err = Unpack(dest, nil, archive.All, []Entry{big}, linuxConfig(WithMaxFileSize(16)))
	require.ErrorIs(t, err, ErrFileTooLarge)
	_, statErr := os.Stat(filepath.Join(dest, "big.bin"))
	assert.True(t, os.IsNotExist(statErr))
	assertNoTempFiles(t, dest)

	require.NoError(t, Unpack(dest, nil, archive.All, []Entry{big}, linuxConfig(WithMaxFileSize(0))))
}

func TestUnpackSkipsInvalidPaths(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		memEntry("../escape.txt", "x"),
		memEntry("./res.txt", "x"),
		memEntry("assets/ok.txt", "ok"),
		memEntry("libfoo.so", "native foo"),
	}
	dest := t.TempDir()
	rec := newRecorder()
	require.NoError(t, Unpack(dest, rec, archive.All, entries, linuxConfig()))

	_, statErr := os.Stat(filepath.Join(filepath.Dir(dest), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(dest, "res.txt"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, "ok", readString(t, filepath.Join(dest, "assets", "ok.txt")))
	assert.Equal(t, filepath.Join(dest, "libfoo.so"), rec.libs["foo"])
}

func TestUnpackRecordsLibrariesInEntryOrder(t *testing.T) {
	t.Parallel()

	// The first entry cannot finish before the second has been opened, so
	// the second write always completes first.
	secondOpened := make(chan struct{})
	first := memEntry("libfoo.so", "unversioned")
	first.Open = func() (io.ReadCloser, error) {
		<-secondOpened
		return io.NopCloser(strings.NewReader("unversioned")), nil
	}
	second := memEntry("libfoo.so.1", "versioned")
	second.Open = func() (io.ReadCloser, error) {
		close(secondOpened)
		return io.NopCloser(strings.NewReader("versioned")), nil
	}

	dest := t.TempDir()
	rec := &orderRecorder{}
	require.NoError(t, Unpack(dest, rec, archive.All, []Entry{first, second}, linuxConfig(WithWorkers(2))))

	assert.Equal(t, []string{
		"foo=" + filepath.Join(dest, "libfoo.so"),
		"foo=" + filepath.Join(dest, "libfoo.so.1"),
	}, rec.puts)
}

func TestUnpackOpenError(t *testing.T) {
	t.Parallel()

	boom := errors.New("corrupt entry")
	entries := []Entry{{
		Name: "assets/bad.txt",
		Open: func() (io.ReadCloser, error) { return nil, boom },
	}}
	err := Unpack(t.TempDir(), nil, archive.All, entries, linuxConfig())
	require.ErrorIs(t, err, boom)
}

func TestUnpackReadErrorDiscards(t *testing.T) {
	t.Parallel()

	boom := errors.New("truncated")
	entries := []Entry{{
		Name: "assets/bad.txt",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(io.MultiReader(bytes.NewReader([]byte("part")), &failingReader{err: boom})), nil
		},
	}}
	dest := t.TempDir()
	err := Unpack(dest, nil, archive.All, entries, linuxConfig(WithWorkers(1)))
	require.ErrorIs(t, err, boom)
	_, statErr := os.Stat(filepath.Join(dest, "assets", "bad.txt"))
	assert.True(t, os.IsNotExist(statErr))
	assertNoTempFiles(t, dest)
}

func TestUnpackManyEntriesParallel(t *testing.T) {
	t.Parallel()

	var entries []Entry
	for i := range 64 {
		entries = append(entries, memEntry(filepath.ToSlash(filepath.Join("res", string(rune('a'+i%26)), strings.Repeat("f", i+1)+".txt")), "data"))
	}
	dest := t.TempDir()
	require.NoError(t, Unpack(dest, nil, archive.All, entries, linuxConfig(WithWorkers(8))))
	for _, e := range entries {
		_, err := os.Stat(filepath.Join(dest, filepath.FromSlash(e.Name)))
		assert.NoError(t, err, e.Name)
	}
}

func TestUnpackPreservesMode(t *testing.T) {
	t.Parallel()

	e := memEntry("bin/tool", "#!/bin/sh")
	e.Mode = 0o755
	dest := t.TempDir()
	require.NoError(t, Unpack(dest, nil, archive.All, []Entry{e}, linuxConfig()))
	info, err := os.Stat(filepath.Join(dest, "bin", "tool"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

// orderRecorder keeps every Put in call order.
type orderRecorder struct {
	mu   sync.Mutex
	puts []string
}

func (r *orderRecorder) Put(name, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.puts = append(r.puts, name+"="+path)
}

func readString(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

type failingReader struct {
	err error
}

func (r *failingReader) Read([]byte) (int, error) { return 0, r.err }

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".jarcache-") {
			t.Errorf("leftover temp file %s", p)
		}
		return nil
	})
	require.NoError(t, err)
}
