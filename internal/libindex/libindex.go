// Package libindex maps logical native library names to extracted paths.
package libindex

import (
	"maps"
	"sync"
)

// Index is safe for concurrent use. The first path recorded for a name
// wins; later Puts for the same name are ignored.
type Index struct {
	mu    sync.RWMutex
	paths map[string]string
}

// New returns an empty index.
func New() *Index {
	return &Index{paths: make(map[string]string)}
}

// Put records path for name unless name is already present.
func (i *Index) Put(name, path string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.paths[name]; ok {
		return
	}
	i.paths[name] = path
}

// Get returns the path recorded for name.
func (i *Index) Get(name string) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	p, ok := i.paths[name]
	return p, ok
}

// Len returns the number of recorded names.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.paths)
}

// Snapshot returns a copy of the mapping.
func (i *Index) Snapshot() map[string]string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return maps.Clone(i.paths)
}
