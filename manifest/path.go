package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for manifest paths that are empty, absolute,
// contain empty segments, or traverse upward.
var ErrInvalidPath = errors.New("manifest: invalid path")

// ValidatePath normalizes a manifest-declared relative path and fails closed
// on anything that could write outside the staging tree. Interior "."
// segments are dropped ("a/./b" becomes "a/b"); absolute paths, ".."
// segments, and empty segments are rejected outright rather than stripped.
// The returned path is slash-separated.
func ValidatePath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: absolute path %q", ErrInvalidPath, p)
	}
	var out []string
	for _, segment := range strings.Split(p, "/") {
		switch segment {
		case "":
			return "", fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, p)
		case ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: parent traversal in %q", ErrInvalidPath, p)
		}
		out = append(out, segment)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("%w: %q resolves to empty", ErrInvalidPath, p)
	}
	return strings.Join(out, "/"), nil
}
