package extract

import (
	"fmt"

	"github.com/meigma/jarcache/archive"
)

// Router is an [archive.Extractor] that dispatches on the archive's media type.
type Router struct {
	routes map[string]archive.Extractor
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]archive.Extractor)}
}

// Handle registers e for the given media types and returns r for chaining.
func (r *Router) Handle(e archive.Extractor, mediaTypes ...string) *Router {
	for _, mt := range mediaTypes {
		r.routes[mt] = e
	}
	return r
}

// Extract implements [archive.Extractor].
func (r *Router) Extract(dest string, libs archive.LibraryRecorder, a *archive.Archive, want archive.Categories) error {
	e, ok := r.routes[a.MediaType()]
	if !ok {
		return fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, a.Path(), a.MediaType())
	}
	return e.Extract(dest, libs, a, want)
}
