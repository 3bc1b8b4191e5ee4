package shelf

import (
	"path"
	"strings"
	"unicode/utf8"
)

// RootPath is the resolved form of the storage root itself.
const RootPath = "."

// ResolvePath turns a captured request path into a clean, slash-separated path
// relative to the storage root.
//
// Leading and trailing slashes are dropped and "." / ".." segments are
// resolved lexically. A path that resolves to the root returns RootPath.
// A path that would climb above the root, or that contains a NUL byte or
// invalid UTF-8, returns ErrInvalidPath.
func ResolvePath(captured string) (string, error) {
	if strings.IndexByte(captured, 0) >= 0 || !utf8.ValidString(captured) {
		return "", ErrInvalidPath
	}

	p := path.Clean(strings.TrimLeft(captured, "/"))
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", ErrInvalidPath
	}

	// Clean returns "." for an empty input, which is RootPath.
	return p, nil
}

// IsRoot reports whether a resolved path names the storage root.
func IsRoot(resolved string) bool {
	return resolved == RootPath
}
