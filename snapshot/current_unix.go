//go:build unix

package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cityfeed/puller/internal/fsutil"
)

// CurrentName is the well-known pointer consulted by external readers.
const CurrentName = "current"

// SwitchCurrent atomically points root/current at targetRel (a root-relative
// path like "snapshots/v1"). A pointer that already has that value is a
// no-op; changed reports whether the pointer was actually replaced. Readers
// observe either the old or the new value, never a missing or partial one:
// the new symlink is created under a temporary name and renamed over the
// pointer in one step.
func SwitchCurrent(root, targetRel string) (changed bool, err error) {
	current := filepath.Join(root, CurrentName)
	existing, err := os.Readlink(current)
	if err == nil && existing == targetRel {
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("readlink %s: %w", current, err)
	}

	tmp := filepath.Join(root, fmt.Sprintf(".%s.new.%d", CurrentName, os.Getpid()))
	_ = os.Remove(tmp)
	if err := os.Symlink(targetRel, tmp); err != nil {
		return false, fmt.Errorf("create symlink %s -> %s: %w", tmp, targetRel, err)
	}
	if err := os.Rename(tmp, current); err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("rename symlink %s -> %s: %w", tmp, current, err)
	}
	if err := fsutil.SyncDir(root); err != nil {
		return false, err
	}
	return true, nil
}

// CurrentTarget reads the pointer's value. A missing pointer returns "" with
// no error.
func CurrentTarget(root string) (string, error) {
	target, err := os.Readlink(filepath.Join(root, CurrentName))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("readlink %s: %w", filepath.Join(root, CurrentName), err)
	}
	return target, nil
}
