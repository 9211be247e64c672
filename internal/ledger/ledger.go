// Package ledger records which archives have completed extraction, per
// category.
package ledger

import (
	"sync"

	"github.com/meigma/jarcache/archive"
)

// Ledger tracks, for each category, the set of archive keys whose
// extraction completed. Membership only grows.
//
// Two kinds of locking are involved. The sets themselves are guarded by an
// RWMutex so reads never wait on a running extraction. Callers that need
// check-then-extract-then-mark to be atomic hold the per-category locks
// returned by Lock for the whole sequence.
type Ledger struct {
	mu   sync.RWMutex
	sets map[archive.Category]map[string]struct{}

	native   sync.Mutex
	class    sync.Mutex
	resource sync.Mutex
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		sets: map[archive.Category]map[string]struct{}{
			archive.NativeLibrary: {},
			archive.ClassFile:     {},
			archive.Resource:      {},
		},
	}
}

// Lock acquires the critical section of every category in cats, always in
// the order native, class, resource, and returns the matching unlock.
func (l *Ledger) Lock(cats archive.Categories) (unlock func()) {
	var held []*sync.Mutex
	cats.Each(func(c archive.Category) {
		m := l.mutex(c)
		m.Lock()
		held = append(held, m)
	})
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// Has reports whether extraction of c completed for key.
func (l *Ledger) Has(key string, c archive.Category) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.sets[c][key]
	return ok
}

// Mark records that extraction of every category in cats completed for key.
func (l *Ledger) Mark(key string, cats archive.Categories) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cats.Each(func(c archive.Category) {
		l.sets[c][key] = struct{}{}
	})
}

// Pending returns the members of requested not yet marked for key.
func (l *Ledger) Pending(key string, requested archive.Categories) archive.Categories {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var pending archive.Categories
	requested.Each(func(c archive.Category) {
		if _, ok := l.sets[c][key]; !ok {
			pending = pending.With(c)
		}
	})
	return pending
}

// Len returns the number of archives marked for c.
func (l *Ledger) Len(c archive.Category) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sets[c])
}

func (l *Ledger) mutex(c archive.Category) *sync.Mutex {
	switch c {
	case archive.NativeLibrary:
		return &l.native
	case archive.ClassFile:
		return &l.class
	default:
		return &l.resource
	}
}
