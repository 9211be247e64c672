package extract

import "errors"

var (
	// ErrFileTooLarge is returned when an entry exceeds the configured size limit.
	ErrFileTooLarge = errors.New("extract: file too large")

	// ErrUnsupportedFormat is returned when no extractor handles an archive's media type.
	ErrUnsupportedFormat = errors.New("extract: unsupported archive format")
)
