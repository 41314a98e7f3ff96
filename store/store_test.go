package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cityfeed/puller/manifest"
)

func openString(s string) OpenFunc {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(s)), nil
	}
}

func TestEnsureWritesObject(t *testing.T) {
	t.Parallel()

	s, err := New(filepath.Join(t.TempDir(), "objects"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Ensure("abc", 11, openString("hello world")); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	got, err := os.ReadFile(s.Path("abc"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("object content = %q, want %q", got, "hello world")
	}

	info, err := os.Stat(s.Path("abc"))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("object mode = %o, want 644", info.Mode().Perm())
	}
	if !s.Has("abc") {
		t.Fatal("Has() = false after Ensure")
	}
}

func TestEnsurePresentObjectSkipsFetch(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Ensure("abc", 5, openString("12345")); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	err = s.Ensure("abc", 5, func() (io.ReadCloser, error) {
		t.Fatal("open called for present object")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Ensure() second run error = %v", err)
	}
}

func TestEnsureSizeMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = s.Ensure("abc", 99, openString("short"))
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("Ensure() error = %v, want ErrSizeMismatch", err)
	}
	if s.Has("abc") {
		t.Fatal("object published despite size mismatch")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("objects dir entries = %d, want no temp leftovers", len(entries))
	}
}

func TestEnsureInvalidHash(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, hash := range []string{"", "a/b", `a\b`} {
		err := s.Ensure(hash, 1, func() (io.ReadCloser, error) {
			t.Fatalf("open called for invalid hash %q", hash)
			return nil, nil
		})
		if !errors.Is(err, manifest.ErrInvalidHash) {
			t.Fatalf("Ensure(%q) error = %v, want ErrInvalidHash", hash, err)
		}
	}
}

func TestEnsureConcurrentCreationIsSuccess(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Simulate a crash-then-retry race: the final name appears between the
	// existence pre-check and the publish.
	err = s.Ensure("abc", 5, func() (io.ReadCloser, error) {
		if err := os.WriteFile(s.Path("abc"), []byte("12345"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		return io.NopCloser(strings.NewReader("12345")), nil
	})
	if err != nil {
		t.Fatalf("Ensure() error = %v, want success when destination exists", err)
	}
}

func TestEnsureOpenFailurePropagates(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sentinel := errors.New("all origins down")
	err = s.Ensure("abc", 1, func() (io.ReadCloser, error) { return nil, sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("Ensure() error = %v, want open error", err)
	}
}
