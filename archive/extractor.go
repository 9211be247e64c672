package archive

// LibraryRecorder receives the logical name and absolute extracted path of
// each native library an [Extractor] writes.
type LibraryRecorder interface {
	Put(name, path string)
}

// Extractor copies the entries of an archive that fall into the requested
// categories into dest.
//
// For every native library entry it writes, an Extractor records the
// library's logical name and absolute path in libs. libs may be nil when
// NativeLibrary is not requested. Extractors may be called several times for
// the same archive with different category sets; deduplication is the
// caller's job.
type Extractor interface {
	Extract(dest string, libs LibraryRecorder, a *Archive, want Categories) error
}

// ExtractorFunc adapts a function to the [Extractor] interface.
type ExtractorFunc func(dest string, libs LibraryRecorder, a *Archive, want Categories) error

// Extract calls f.
func (f ExtractorFunc) Extract(dest string, libs LibraryRecorder, a *Archive, want Categories) error {
	return f(dest, libs, a, want)
}
