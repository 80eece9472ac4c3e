// Package sanitize reduces user-supplied names to filesystem-safe identifiers.
package sanitize

import (
	"path/filepath"
	"strings"
)

// DefaultName is used when the input is empty.
const DefaultName = "untitled"

// Name replaces every rune outside [A-Za-z0-9_-] with '_'.
// There is no length limit.
func Name(s string) string {
	if s == "" {
		return DefaultName
	}
	return strings.Map(func(r rune) rune {
		if isSafe(r) {
			return r
		}
		return '_'
	}, s)
}

// IsSafe reports whether s is already a sanitized, non-empty name.
func IsSafe(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isSafe(r) {
			return false
		}
	}
	return true
}

// SplitFilename splits name at its last dot, returning the base and the
// lowercased extension without the dot. Directory components are dropped.
func SplitFilename(name string) (base, ext string) {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return "", ""
	}
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], strings.ToLower(name[i+1:])
}

func isSafe(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}
