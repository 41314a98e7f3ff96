// Package origin resolves candidate download origins and provides ordered
// fail-over across them for manifest and object fetches.
package origin

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
)

// Sentinel errors for origin configuration. These are fatal at startup, not
// per-origin conditions.
var (
	// ErrNoOrigins is returned when no origins are configured.
	ErrNoOrigins = errors.New("origin: no origins configured")

	// ErrEmptyOrigin is returned when an origin string is empty.
	ErrEmptyOrigin = errors.New("origin: empty origin")

	// ErrUnsupportedScheme is returned for origins that are not http or https.
	ErrUnsupportedScheme = errors.New("origin: unsupported scheme")
)

// Origins is an ordered, deduplicated list of normalized base locations.
// Fetches try origins strictly left to right.
type Origins []string

// Normalize canonicalizes one raw origin: trims whitespace, strips trailing
// slashes, and requires a parsable http or https URL. Any failure here fails
// the whole configuration step.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyOrigin
	}
	normalized := strings.TrimRight(trimmed, "/")
	u, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("parse origin %q (include http:// or https://): %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: %q in origin %q", ErrUnsupportedScheme, u.Scheme, raw)
	}
	return normalized, nil
}

// NormalizeAll normalizes every raw origin and removes duplicates, preserving
// first-seen order.
func NormalizeAll(raw []string) (Origins, error) {
	if len(raw) == 0 {
		return nil, ErrNoOrigins
	}
	out := make(Origins, 0, len(raw))
	for _, r := range raw {
		normalized, err := Normalize(r)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, normalized) {
			out = append(out, normalized)
		}
	}
	return out, nil
}

// Try runs attempt against each origin in order and returns on the first
// success. Each failure is logged as a warning; once every origin has been
// exhausted the last failure is surfaced, wrapped with what was being fetched.
func (o Origins) Try(logger *slog.Logger, what string, attempt func(origin string) error) error {
	if len(o) == 0 {
		return ErrNoOrigins
	}
	var lastErr error
	for _, org := range o {
		err := attempt(org)
		if err == nil {
			return nil
		}
		logger.Warn(what+" failed", "origin", org, "error", err)
		lastErr = err
	}
	return fmt.Errorf("%s from all origins: %w", what, lastErr)
}
