package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyNoClobber(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.WriteFile(src, []byte("hello world"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	dst := filepath.Join(dir, "out", "dst")
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	if err := CopyNoClobber(src, dst); err != nil {
		t.Fatalf("CopyNoClobber() error = %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("dst content = %q, want %q", got, "hello world")
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("dst mode = %o, want 644", info.Mode().Perm())
	}
}

func TestCopyNoClobberExistingDestination(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("new"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	err := CopyNoClobber(src, dst)
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("CopyNoClobber() error = %v, want fs.ErrExist", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "old" {
		t.Fatalf("dst content = %q, want untouched %q", got, "old")
	}
}

func TestCopyNoClobberLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("content"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := CopyNoClobber(src, dst); err != nil {
		t.Fatalf("CopyNoClobber() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".copy-") {
			t.Fatalf("temp file %s left behind", entry.Name())
		}
	}
}

func TestSyncDir(t *testing.T) {
	t.Parallel()

	if err := SyncDir(t.TempDir()); err != nil {
		t.Fatalf("SyncDir() error = %v", err)
	}
	if err := SyncDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("SyncDir() expected error for missing dir")
	}
}
