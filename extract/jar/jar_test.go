package jar

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/jarcache/archive"
	"github.com/meigma/jarcache/extract"
	"github.com/meigma/jarcache/internal/testutil"
)

type recorder struct {
	mu   sync.Mutex
	libs map[string]string
}

func (r *recorder) Put(name, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.libs == nil {
		r.libs = map[string]string{}
	}
	r.libs[name] = path
}

func fixture(t *testing.T) *archive.Archive {
	t.Helper()
	p := testutil.WriteJar(t, t.TempDir(), "fixture.jar",
		testutil.File{Name: "META-INF/MANIFEST.MF", Data: []byte("Manifest-Version: 1.0\n")},
		testutil.File{Name: "libfoo.so", Data: []byte("stored native"), Method: zip.Store},
		testutil.File{Name: "com/", Data: nil},
		testutil.File{Name: "com/example/Foo.class", Data: []byte("deflated class"), Method: zip.Deflate},
		testutil.File{Name: "assets/readme.txt", Data: []byte("zstd resource"), Method: testutil.MethodZstd},
		testutil.File{Name: "natives/libbar.so", Data: []byte("nested native"), Method: zip.Deflate},
	)
	a, err := archive.Open(p)
	require.NoError(t, err)
	require.Equal(t, archive.MediaTypeJAR, a.MediaType())
	return a
}

func TestExtractAll(t *testing.T) {
	t.Parallel()

	a := fixture(t)
	dest := t.TempDir()
	rec := &recorder{}
	e := New(extract.WithPlatform("linux"))
	require.NoError(t, e.Extract(dest, rec, a, archive.All))

	for name, want := range map[string]string{
		"libfoo.so":             "stored native",
		"com/example/Foo.class": "deflated class",
		"assets/readme.txt":     "zstd resource",
		"natives/libbar.so":     "nested native",
	} {
		got := testutil.ReadFile(t, filepath.Join(dest, filepath.FromSlash(name)))
		assert.Equal(t, want, string(got), name)
	}
	_, err := os.Stat(filepath.Join(dest, "META-INF"))
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, map[string]string{"foo": filepath.Join(dest, "libfoo.so")}, rec.libs)
}

func TestExtractSingleCategory(t *testing.T) {
	t.Parallel()

	a := fixture(t)
	dest := t.TempDir()
	e := New(extract.WithPlatform("linux"))
	require.NoError(t, e.Extract(dest, nil, a, archive.Of(archive.ClassFile)))

	_, err := os.Stat(filepath.Join(dest, "com", "example", "Foo.class"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "libfoo.so"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dest, "assets", "readme.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractEmptyWant(t *testing.T) {
	t.Parallel()

	a := fixture(t)
	dest := t.TempDir()
	require.NoError(t, New().Extract(dest, nil, a, 0))
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractNotAZip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "bogus.jar")
	require.NoError(t, os.WriteFile(p, []byte("PK\x03\x04 but not really"), 0o600))
	a, err := archive.Open(p)
	require.NoError(t, err)

	err = New().Extract(t.TempDir(), &recorder{}, a, archive.All)
	assert.Error(t, err)
}
