// Package store implements the content-addressed, append-only object store.
//
// Objects live at <dir>/<hash> and are immutable once present. The hash is an
// opaque cache key: only the byte length is ever checked against the
// manifest's declaration, the content is not verified against the hash.
// Writes are crash-safe: bytes are streamed to a temp file in the same
// directory, fsynced, then published under the final name without clobbering,
// and the directory entry is flushed afterwards.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cityfeed/puller/internal/fsutil"
	"github.com/cityfeed/puller/manifest"
)

// ErrSizeMismatch is returned when a downloaded body's length differs from
// the size the manifest declared. This is a hard local failure, not a reason
// to try another origin.
var ErrSizeMismatch = errors.New("store: object size mismatch")

// OpenFunc opens the remote content stream for one object. Implementations
// perform their own origin fail-over; by the time OpenFunc returns a body,
// the response status was already a success.
type OpenFunc func() (io.ReadCloser, error)

// Store is a content-addressed object directory owned by a single publishing
// process.
type Store struct {
	dir string
}

// New opens (creating if needed) the object store at dir.
func New(dir string) (*Store, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Dir returns the objects directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where the object for hash lives. The hash must have been
// validated.
func (s *Store) Path(hash string) string {
	return filepath.Join(s.dir, hash)
}

// Has reports whether the object is already present.
func (s *Store) Has(hash string) bool {
	if manifest.ValidateHash(hash) != nil {
		return false
	}
	_, err := os.Lstat(s.Path(hash))
	return err == nil
}

// Ensure makes the object for hash present and size-correct. A present
// object short-circuits with no network call; this is what makes re-runs
// converge without re-downloading. Otherwise the body returned by open is
// streamed to a temp file, length-checked against expectedSize, flushed, and
// published no-clobber: a concurrently created object is treated as already
// satisfied, never as a conflict.
func (s *Store) Ensure(hash string, expectedSize uint64, open OpenFunc) error {
	if err := manifest.ValidateHash(hash); err != nil {
		return err
	}
	final := s.Path(hash)
	if _, err := os.Lstat(final); err == nil {
		return nil
	}

	body, err := open()
	if err != nil {
		return err
	}
	defer body.Close()

	tmp, err := os.CreateTemp(s.dir, ".obj-*")
	if err != nil {
		return fmt.Errorf("create temp object file: %w", err)
	}
	tmpPath := tmp.Name()
	written, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write object %s body: %w", hash, err)
	}
	if uint64(written) != expectedSize {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: object %s expected %d got %d", ErrSizeMismatch, hash, expectedSize, written)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsync object temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close object temp file: %w", err)
	}

	if err := fsutil.CommitNoClobber(tmpPath, final); err != nil {
		if errors.Is(err, fs.ErrExist) {
			// A prior run won the race; the object is content-addressed,
			// so whatever is there is the same object.
			return nil
		}
		return err
	}
	if err := os.Chmod(final, 0o644); err != nil {
		return fmt.Errorf("chmod object %s: %w", final, err)
	}
	return fsutil.SyncDir(s.dir)
}
