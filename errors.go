package jarcache

import (
	"errors"
	"fmt"

	"github.com/meigma/jarcache/archive"
	"github.com/meigma/jarcache/extract"
)

var (
	// ErrInvalid is returned by every operation once the cache directory
	// could not be created. The state is permanent for the Cache.
	ErrInvalid = errors.New("jarcache: cache directory unavailable")

	// ErrClosed is returned by operations on a Cache after Close.
	ErrClosed = errors.New("jarcache: cache closed")

	// ErrUnsupportedFormat is returned when no extractor handles an archive.
	ErrUnsupportedFormat = extract.ErrUnsupportedFormat

	// ErrFileTooLarge is returned when an archive entry exceeds the size limit.
	ErrFileTooLarge = extract.ErrFileTooLarge
)

// InitError reports why the cache directory could not be created.
// It matches ErrInvalid under errors.Is.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInvalid, e.Err)
}

// Unwrap returns both ErrInvalid and the underlying cause.
func (e *InitError) Unwrap() []error {
	return []error{ErrInvalid, e.Err}
}

// ExtractionError reports an I/O failure while unpacking an archive.
// The categories it names were left unmarked and may be retried.
type ExtractionError struct {
	Archive    *archive.Archive
	Categories archive.Categories
	Err        error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("jarcache: extract %s from %s: %v", e.Categories, e.Archive, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}
