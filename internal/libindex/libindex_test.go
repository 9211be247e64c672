package libindex

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	t.Parallel()

	idx := New()
	_, ok := idx.Get("foo")
	assert.False(t, ok)

	idx.Put("foo", "/tmp/x/libfoo.so")
	got, ok := idx.Get("foo")
	require.True(t, ok)
	assert.Equal(t, "/tmp/x/libfoo.so", got)
	assert.Equal(t, 1, idx.Len())
}

func TestPutKeepsFirst(t *testing.T) {
	t.Parallel()

	idx := New()
	idx.Put("foo", "/first")
	idx.Put("foo", "/second")

	got, _ := idx.Get("foo")
	assert.Equal(t, "/first", got)
}

func TestSnapshotIsCopy(t *testing.T) {
	t.Parallel()

	idx := New()
	idx.Put("a", "/a")
	snap := idx.Snapshot()
	snap["b"] = "/b"

	_, ok := idx.Get("b")
	assert.False(t, ok)
	assert.Equal(t, map[string]string{"a": "/a"}, idx.Snapshot())
}

func TestConcurrentPut(t *testing.T) {
	t.Parallel()

	idx := New()
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx.Put(fmt.Sprintf("lib%d", i%8), fmt.Sprintf("/p/%d", i))
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, idx.Len())
}
