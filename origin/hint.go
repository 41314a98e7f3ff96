package origin

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// TLSNameMismatchHint suggests a path-style origin when an https host looks
// like a virtual-hosted-style storage endpoint with a dotted bucket name
// (dots in the bucket break wildcard certificates). Returns "" when the
// heuristic does not apply. Pure function; it never affects control flow.
func TLSNameMismatchHint(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "https" {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		return ""
	}
	parts := strings.Split(host, ".")
	idx := slices.Index(parts, "s3")
	if idx < 0 {
		idx = slices.Index(parts, "s3-website")
	}
	// A dotted bucket needs at least two labels before the endpoint marker.
	if idx <= 1 {
		return ""
	}
	bucket := strings.Join(parts[:idx], ".")
	endpoint := strings.Join(append([]string{"s3"}, parts[idx+1:]...), ".")
	return fmt.Sprintf("Try path-style origin for dotted bucket names, e.g. `https://%s/%s`", endpoint, bucket)
}
