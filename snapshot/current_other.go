//go:build !unix

package snapshot

// CurrentName is the well-known pointer consulted by external readers.
const CurrentName = "current"

// SwitchCurrent requires an atomic symlink replacement primitive, which this
// platform does not provide. Failing explicitly beats degrading to a
// non-atomic update that readers could observe half-done.
func SwitchCurrent(root, targetRel string) (bool, error) {
	return false, ErrUnsupportedPlatform
}

// CurrentTarget is unavailable for the same reason.
func CurrentTarget(root string) (string, error) {
	return "", ErrUnsupportedPlatform
}
