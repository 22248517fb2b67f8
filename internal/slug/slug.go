// Package slug validates and derives the URL-safe identifiers that map to
// public profiles.
package slug

import (
	"regexp"
	"strings"
)

var (
	pattern  = regexp.MustCompile(`^[a-z0-9_-]{3,32}$`)
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
)

// Normalize lowercases and trims a requested slug before validation and
// lookup.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Valid reports whether s is an acceptable slug.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Base derives a slug stem from a username: lowercased, runs of
// non-alphanumerics collapsed to a single dash, truncated.
func Base(username string) string {
	base := nonAlnum.ReplaceAllString(strings.ToLower(username), "-")

	if len(base) > 40 {
		base = base[:40]
	}

	return base
}
