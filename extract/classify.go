package extract

import (
	"strings"

	"github.com/meigma/jarcache/archive"
	"github.com/meigma/jarcache/nativelib"
)

const (
	metaInfDir  = "META-INF/"
	classSuffix = ".class"
)

// Classify assigns an archive entry name to a category.
//
// Directories and META-INF entries are skipped (ok is false). Names ending in
// ".class" are class files. A name at the archive root that p recognizes as a
// native library is a NativeLibrary and libName is its logical name. Every
// other regular file is a Resource, including library-looking files in
// subdirectories.
func Classify(name string, p nativelib.Platform) (c archive.Category, libName string, ok bool) {
	if name == "" || strings.HasSuffix(name, "/") {
		return 0, "", false
	}
	if strings.HasPrefix(strings.ToUpper(name), metaInfDir) {
		return 0, "", false
	}
	if strings.HasSuffix(name, classSuffix) {
		return archive.ClassFile, "", true
	}
	if base, isLib := p.Base(name); isLib {
		return archive.NativeLibrary, base, true
	}
	return archive.Resource, "", true
}

// ClassFileName converts a binary class name such as "com.example.Foo" to
// the archive path of its class file, "com/example/Foo.class".
func ClassFileName(binaryName string) string {
	return strings.ReplaceAll(binaryName, ".", "/") + classSuffix
}
