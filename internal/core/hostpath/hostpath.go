// Package hostpath resolves host-side paths found in compose volume specs.
// All functions are pure and accept both '/' and '\' separators so that a
// compose file written on one platform resolves the same way on another.
package hostpath

import (
	"path/filepath"
	"strings"
)

// IsAbs reports whether p is absolute under either POSIX or Windows rules.
// A leading '/' or '\' counts, as does a drive-letter prefix such as "C:".
func IsAbs(p string) bool {
	if p == "" {
		return false
	}
	if p[0] == '/' || p[0] == '\\' {
		return true
	}
	return HasDriveLetter(p)
}

// HasDriveLetter reports whether p starts with "X:" where X is an ASCII letter.
func HasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// IsHome reports whether p is anchored at the user's home directory ("~" or "~/...").
// Such paths are left for the consumer to expand.
func IsHome(p string) bool {
	return p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`)
}

// LooksLikePath reports whether the source segment of a bind spec refers to a
// host path rather than a named volume. Presence of a separator is the signal;
// "." and ".." are paths as well.
//
// The heuristic is ambiguous for volume names that happen to contain a
// separator-like character. Compose volume names cannot, so it is kept as is.
func LooksLikePath(p string) bool {
	if p == "." || p == ".." {
		return true
	}
	return strings.ContainsAny(p, `/\`) || IsAbs(p)
}

// Resolve returns p unchanged when it is already absolute (or home-anchored),
// otherwise joins it onto basedir and collapses "." and ".." segments.
//
// Example:
//
//	Resolve("compose/version", "/src/project") // returns "/src/project/compose/version"
//	Resolve("/tmp", "/src/project")            // returns "/tmp"
func Resolve(p, basedir string) string {
	if IsAbs(p) || IsHome(p) {
		return p
	}
	rel := filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
	return filepath.Join(basedir, rel)
}
