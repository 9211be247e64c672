// Package extract holds the machinery shared by the archive extractors:
// entry classification, the atomic file sink that writes entries into the
// cache directory, and a media-type router.
//
// Format-specific extractors live in subpackages ([github.com/meigma/jarcache/extract/jar]
// and [github.com/meigma/jarcache/extract/stargz]). Each lists its archive's
// regular files as [Entry] values and hands them to [Unpack].
package extract
