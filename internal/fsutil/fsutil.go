// Package fsutil provides the durable filesystem primitives shared by the
// object store and the snapshot builder: directory creation, directory entry
// flushing, and no-clobber atomic file publication.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

// SyncDir flushes the directory entry metadata of dir so that renames and
// links performed inside it survive a crash.
func SyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open dir %s: %w", dir, err)
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		return fmt.Errorf("fsync dir %s: %w", dir, err)
	}
	return nil
}

// CommitNoClobber publishes tmpPath at dst without overwriting an existing
// file. The temp file is removed in every case. If dst already exists the
// returned error matches fs.ErrExist; callers decide whether that counts as
// success (object store) or as an invariant violation (snapshot builder).
func CommitNoClobber(tmpPath, dst string) error {
	if err := os.Link(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("publish %s: %w", dst, fs.ErrExist)
		}
		return fmt.Errorf("publish %s: %w", dst, err)
	}
	return os.Remove(tmpPath)
}

// CopyNoClobber copies src to dst through a temp file in dst's directory,
// fsyncing the data before the final link so dst never appears with partial
// content. A pre-existing dst surfaces as fs.ErrExist. On success dst is
// world-readable and its directory entry is flushed.
func CopyNoClobber(src, dst string) error {
	parent := filepath.Dir(dst)

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(parent, ".copy-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", parent, err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsync temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file %s: %w", tmpPath, err)
	}

	if err := CommitNoClobber(tmpPath, dst); err != nil {
		return err
	}
	if err := os.Chmod(dst, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", dst, err)
	}
	return SyncDir(parent)
}
