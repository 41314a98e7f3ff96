// Package snapshot assembles versioned directory trees from the object store
// and publishes them atomically. A snapshot directory is only ever visible in
// fully-populated form: it is built inside a hidden staging directory and
// promoted with a single rename. The "current" pointer is the one mutable
// piece of published state and is replaced atomically as well.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cityfeed/puller/internal/fsutil"
	"github.com/cityfeed/puller/manifest"
)

// Sentinel errors for snapshot assembly. The consistency errors indicate
// invariant violations rather than transient conditions.
var (
	// ErrMissingObject is returned when a referenced object is absent from
	// the store at build time.
	ErrMissingObject = errors.New("snapshot: missing object")

	// ErrSizeMismatch is returned when an object's on-disk length no longer
	// matches the size the manifest declared for it.
	ErrSizeMismatch = errors.New("snapshot: object size mismatch")

	// ErrDestinationExists is returned when a destination path already
	// exists inside a fresh staging tree. That means the manifest declared
	// duplicate paths or the builder is broken.
	ErrDestinationExists = errors.New("snapshot: destination already exists in staging")

	// ErrUnsupportedPlatform is returned on platforms without an atomic
	// symlink replacement primitive.
	ErrUnsupportedPlatform = errors.New("snapshot: atomic current switch is not supported on this platform")
)

// Builder assembles snapshots from a populated object store.
type Builder struct {
	objectsDir   string
	snapshotsDir string
	logger       *slog.Logger
}

// NewBuilder returns a Builder reading objects from objectsDir and promoting
// snapshots into snapshotsDir.
func NewBuilder(objectsDir, snapshotsDir string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{objectsDir: objectsDir, snapshotsDir: snapshotsDir, logger: logger}
}

// BuildAndPromote produces snapshots/<version> for the manifest and returns
// its path. An existing snapshot directory short-circuits: by construction it
// is complete, so there is nothing to do. Otherwise every file is copied from
// the store into a hidden staging directory (re-statting each object against
// its declared size first) and the whole tree is promoted with one rename.
// Failure before that rename leaves no visible snapshot.
func (b *Builder) BuildAndPromote(m *manifest.Manifest) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	final := filepath.Join(b.snapshotsDir, m.Version)
	if info, err := os.Stat(final); err == nil && info.IsDir() {
		b.logger.Info("snapshot already present", "version", m.Version)
		return final, nil
	}

	staging, err := os.MkdirTemp(b.snapshotsDir, "."+sanitizePrefix(m.Version)+".staging-")
	if err != nil {
		return "", fmt.Errorf("create staging snapshot dir: %w", err)
	}

	for _, f := range m.Files {
		if err := b.stageFile(staging, f); err != nil {
			return "", err
		}
	}

	if err := os.Rename(staging, final); err != nil {
		return "", fmt.Errorf("promote snapshot %s -> %s: %w", staging, final, err)
	}
	if err := fsutil.SyncDir(b.snapshotsDir); err != nil {
		return "", err
	}
	return final, nil
}

func (b *Builder) stageFile(staging string, f manifest.FileDescriptor) error {
	rel, err := manifest.ValidatePath(f.Path)
	if err != nil {
		return fmt.Errorf("invalid manifest path %q: %w", f.Path, err)
	}

	src := filepath.Join(b.objectsDir, f.Hash)
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingObject, src)
		}
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if uint64(info.Size()) != f.Size {
		return fmt.Errorf("%w: object %s expected %d got %d on disk", ErrSizeMismatch, f.Hash, f.Size, info.Size())
	}

	dst := filepath.Join(staging, filepath.FromSlash(rel))
	if err := fsutil.EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	if err := fsutil.CopyNoClobber(src, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	return nil
}

// sanitizePrefix keeps staging directory names safe regardless of what the
// version string contains.
func sanitizePrefix(s string) string {
	out := []byte(s)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
