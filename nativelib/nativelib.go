// Package nativelib recognizes platform-decorated native library file names
// and maps them to their logical (undecorated) names.
package nativelib

import (
	"runtime"
	"strings"
)

// Platform describes how a platform decorates shared library file names.
type Platform struct {
	GOOS     string
	Prefix   string
	Suffixes []string
	// Versioned accepts a trailing ".N[.M...]" after the first suffix,
	// as in libfoo.so.1.2.
	Versioned bool
}

var (
	unix    = Platform{Prefix: "lib", Suffixes: []string{".so"}, Versioned: true}
	darwin  = Platform{GOOS: "darwin", Prefix: "lib", Suffixes: []string{".dylib", ".jnilib"}}
	windows = Platform{GOOS: "windows", Suffixes: []string{".dll"}}
)

// known is the lookup order used by BaseAny after the host platform.
var known = []Platform{
	withGOOS(unix, "linux"),
	darwin,
	windows,
}

func withGOOS(p Platform, goos string) Platform {
	p.GOOS = goos
	return p
}

// For returns the decoration rules for goos. Unknown values fall back to the
// generic Unix rules.
func For(goos string) Platform {
	switch goos {
	case "darwin", "ios":
		return withGOOS(darwin, goos)
	case "windows":
		return windows
	default:
		return withGOOS(unix, goos)
	}
}

// Host returns the decoration rules for the running platform.
func Host() Platform {
	return For(runtime.GOOS)
}

// Base reports whether name looks like a native library file name on p and
// returns its logical name. Decorations match case-insensitively; the
// returned name keeps the original case. Names containing a path separator
// never match.
func (p Platform) Base(name string) (string, bool) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	lower := strings.ToLower(name)
	if !strings.HasPrefix(lower, p.Prefix) {
		return "", false
	}
	for _, suffix := range p.Suffixes {
		end := suffixEnd(lower, suffix, p.Versioned)
		if end < 0 {
			continue
		}
		base := name[len(p.Prefix):end]
		if base == "" {
			continue
		}
		return base, true
	}
	return "", false
}

// Decorate returns the file name p uses for the logical library name base.
func (p Platform) Decorate(base string) string {
	if len(p.Suffixes) == 0 {
		return p.Prefix + base
	}
	return p.Prefix + base + p.Suffixes[0]
}

// BaseAny tries the host platform first, then every known platform.
func BaseAny(name string) (string, bool) {
	if base, ok := Host().Base(name); ok {
		return base, true
	}
	for _, p := range known {
		if base, ok := p.Base(name); ok {
			return base, true
		}
	}
	return "", false
}

// suffixEnd returns the index where suffix starts in name, or -1.
// With versioned set, the suffix may be followed by dot-separated digits.
func suffixEnd(name, suffix string, versioned bool) int {
	if strings.HasSuffix(name, suffix) {
		return len(name) - len(suffix)
	}
	if !versioned {
		return -1
	}
	idx := strings.LastIndex(name, suffix+".")
	if idx < 0 {
		return -1
	}
	if !isVersion(name[idx+len(suffix)+1:]) {
		return -1
	}
	return idx
}

func isVersion(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
