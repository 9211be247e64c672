// Package jarcache unpacks the contents of archives into one temporary
// directory and serves name-based lookups against what it unpacked.
//
// Archive entries fall into three categories: native libraries (shared
// libraries at the archive root, such as libfoo.so), class files (entries
// ending in .class), and resources (everything else). A [Cache] extracts
// each category of each archive at most once, so repeated or concurrent
// requests for the same content cost one pass over the archive.
//
// # Quick Start
//
//	c := jarcache.New()
//	defer c.Close()
//	if !c.Valid() {
//	    return errors.New("no cache directory")
//	}
//
//	a, err := archive.Open("natives-linux-amd64.jar")
//	if err != nil {
//	    return err
//	}
//	if _, err := c.AddNativeLibs(a); err != nil {
//	    return err
//	}
//	path, ok := c.FindLibrary("gluegen-rt")
//
// # Identity
//
// Archives are identified by content digest (see [archive.Open]). Two
// handles opened on the same bytes share extraction state.
//
// # Failure model
//
// The cache directory is created by the first operation. If that fails the
// Cache is permanently invalid: [Cache.Valid] reports false, add operations
// return an error matching [ErrInvalid], and lookups report not found.
// Extraction failures are returned as [*ExtractionError] and leave the
// affected categories unmarked, so the caller may retry.
//
// # Extractors
//
// [DefaultExtractor] handles zip/JAR archives (stored, deflate, and zstd
// entries) and eStargz blobs. Use [WithExtractor] to plug in another
// [archive.Extractor].
package jarcache
