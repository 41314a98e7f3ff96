package puller

import (
	"github.com/cityfeed/puller/manifest"
	"github.com/cityfeed/puller/origin"
	"github.com/cityfeed/puller/snapshot"
	"github.com/cityfeed/puller/store"
)

// Errors re-exported from origin. These are configuration errors: fatal at
// startup, never retried.
var (
	ErrNoOrigins         = origin.ErrNoOrigins
	ErrEmptyOrigin       = origin.ErrEmptyOrigin
	ErrUnsupportedScheme = origin.ErrUnsupportedScheme
)

// Errors re-exported from manifest.
var (
	ErrEmptyVersion   = manifest.ErrEmptyVersion
	ErrInvalidVersion = manifest.ErrInvalidVersion
	ErrInvalidPath    = manifest.ErrInvalidPath
	ErrInvalidHash    = manifest.ErrInvalidHash
)

// Errors re-exported from store and snapshot.
var (
	// ErrObjectSizeMismatch is returned when a downloaded body's length
	// differs from the manifest's declared size.
	ErrObjectSizeMismatch = store.ErrSizeMismatch

	// ErrStoredSizeMismatch is returned when an on-disk object's length no
	// longer matches a declaration at snapshot build time.
	ErrStoredSizeMismatch = snapshot.ErrSizeMismatch

	ErrMissingObject       = snapshot.ErrMissingObject
	ErrDestinationExists   = snapshot.ErrDestinationExists
	ErrUnsupportedPlatform = snapshot.ErrUnsupportedPlatform
)
