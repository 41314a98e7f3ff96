// Package manifest defines the declared file set for one published version
// and validates it before any filesystem path is derived from it.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sentinel errors for manifest validation.
var (
	// ErrEmptyVersion is returned when a manifest declares no version.
	ErrEmptyVersion = errors.New("manifest: empty version")

	// ErrInvalidVersion is returned when a version contains path separators.
	ErrInvalidVersion = errors.New("manifest: invalid version")

	// ErrInvalidHash is returned when a content identifier is empty or
	// contains path separators.
	ErrInvalidHash = errors.New("manifest: invalid object hash")
)

// Manifest is the declared desired state for one version. The file order is
// preserved for deterministic processing but carries no meaning.
type Manifest struct {
	Version string           `json:"version"`
	Files   []FileDescriptor `json:"files"`
}

// FileDescriptor declares one file of a version: where it lives in the
// snapshot, which object holds its content, and how many bytes that object
// must have. The hash is an opaque cache key; its content is never verified
// against it, only the length is checked (see the package doc of store).
type FileDescriptor struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
	Size uint64 `json:"size"`
}

// Decode parses a manifest document and validates it. The manifest is the
// one attacker-influenced input of the pipeline, so every path and hash is
// checked here before anything is joined onto a local directory.
func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the version, every file path, and every hash.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Version) == "" {
		return ErrEmptyVersion
	}
	if strings.ContainsAny(m.Version, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, m.Version)
	}
	for _, f := range m.Files {
		if _, err := ValidatePath(f.Path); err != nil {
			return fmt.Errorf("invalid manifest path %q: %w", f.Path, err)
		}
		if err := ValidateHash(f.Hash); err != nil {
			return err
		}
	}
	return nil
}

// ValidateHash rejects content identifiers that could escape the objects
// directory when used as a filename.
func ValidateHash(hash string) error {
	if hash == "" || strings.ContainsAny(hash, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}
	return nil
}
