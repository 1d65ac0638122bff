// Package pathkey maps user-supplied page names onto storage-safe keys and
// builds the hrefs that wiki links point at.
package pathkey

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Extension is the file extension every page is stored under.
const Extension = ".md"

// Key is a sanitized page identifier: non-empty segments of [A-Za-z0-9_-]
// joined with "/". The zero value is the invalid (empty) key.
type Key string

// Parse sanitizes a percent-decoded page name into a Key.
//
// The name is split on "/"; empty, "." and ".." segments are discarded and
// every character outside [A-Za-z0-9_-] is dropped from the rest. Segments
// left empty by stripping are discarded as well. Parse never fails; a name
// with no surviving segment yields the empty Key.
func Parse(raw string) Key {
	parts := strings.Split(raw, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		if s := stripSegment(p); s != "" {
			out = append(out, s)
		}
	}
	return Key(strings.Join(out, "/"))
}

func stripSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; isSafe(c) {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isSafe(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_' || c == '-'
}

// Valid reports whether k names a page.
func (k Key) Valid() bool { return k != "" }

// String returns the slash-joined key.
func (k Key) String() string { return string(k) }

// Name returns the last segment of k.
func (k Key) Name() string {
	s := string(k)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// RelPath is the storage location of k relative to the wiki root, using the
// OS path separator.
func (k Key) RelPath() string {
	return filepath.FromSlash(string(k)) + Extension
}

// Resolve returns the on-disk file for raw under root. It performs no
// existence check. A name that sanitizes to the empty key resolves to
// "<root>/.md", which callers must treat as not found.
func Resolve(root, raw string) string {
	return filepath.Join(root, Parse(raw).RelPath())
}

// FromRelPath converts a root-relative file path back into a Key. It reports
// false for files that are not pages or whose name is not already a valid key.
func FromRelPath(rel string) (Key, bool) {
	rel = filepath.ToSlash(rel)
	if !strings.HasSuffix(rel, Extension) {
		return "", false
	}
	k := Key(strings.TrimSuffix(rel, Extension))
	if !k.Valid() || Parse(string(k)) != k {
		return "", false
	}
	return k, true
}

// LinkHref builds the href of a wiki link from its trimmed label: each
// "/"-separated component has spaces replaced by underscores and is then
// percent-encoded as a URL path segment. Empty, "." and ".." components are
// skipped as Parse skips them, so the href is always a same-host path.
func LinkHref(label string) string {
	parts := strings.Split(label, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ReplaceAll(p, " ", "_")
		if p == "" || p == "." || p == ".." {
			continue
		}
		out = append(out, url.PathEscape(p))
	}
	return "/" + strings.Join(out, "/")
}

// LinkTarget returns the key a wiki link labelled label points at once its
// href has been decoded and parsed again.
func LinkTarget(label string) Key {
	return Parse(strings.ReplaceAll(label, " ", "_"))
}

// EscapePath percent-encodes each component of a page name for use in a
// redirect URL, keeping "/" separators.
func EscapePath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
