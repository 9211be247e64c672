package archive

import "strings"

// Category partitions archive entries by purpose.
type Category uint8

const (
	// NativeLibrary is a platform shared library stored at the archive root.
	NativeLibrary Category = 1 << iota
	// ClassFile is a compiled class file (an entry ending in ".class").
	ClassFile
	// Resource is any other regular file.
	Resource
)

// String returns the lower-case name of the category.
func (c Category) String() string {
	switch c {
	case NativeLibrary:
		return "native"
	case ClassFile:
		return "class"
	case Resource:
		return "resource"
	default:
		return "unknown"
	}
}

// Categories is a set of categories.
type Categories uint8

// All contains every category.
const All = Categories(NativeLibrary) | Categories(ClassFile) | Categories(Resource)

// ordered lists categories in lock and iteration order.
var ordered = [...]Category{NativeLibrary, ClassFile, Resource}

// Of builds a set from the given categories.
func Of(cats ...Category) Categories {
	var s Categories
	for _, c := range cats {
		s |= Categories(c)
	}
	return s
}

// Has reports whether c is in the set.
func (s Categories) Has(c Category) bool {
	return s&Categories(c) != 0
}

// With returns the set with c added.
func (s Categories) With(c Category) Categories {
	return s | Categories(c)
}

// Without returns s minus the members of other.
func (s Categories) Without(other Categories) Categories {
	return s &^ other
}

// IsEmpty reports whether the set has no members.
func (s Categories) IsEmpty() bool {
	return s&All == 0
}

// Each calls fn for every member in a fixed order: native, class, resource.
func (s Categories) Each(fn func(Category)) {
	for _, c := range ordered {
		if s.Has(c) {
			fn(c)
		}
	}
}

// String returns the members joined by "+", or "none".
func (s Categories) String() string {
	if s.IsEmpty() {
		return "none"
	}
	var parts []string
	s.Each(func(c Category) {
		parts = append(parts, c.String())
	})
	return strings.Join(parts, "+")
}
