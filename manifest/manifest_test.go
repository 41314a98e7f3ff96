package manifest

import (
	"errors"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	doc := `{"version":"v1","files":[{"path":"index.html","hash":"abc","size":11}]}`
	m, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if m.Version != "v1" {
		t.Fatalf("Version = %q, want %q", m.Version, "v1")
	}
	if len(m.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(m.Files))
	}
	f := m.Files[0]
	if f.Path != "index.html" || f.Hash != "abc" || f.Size != 11 {
		t.Fatalf("Files[0] = %+v", f)
	}
}

func TestDecodeRejectsEmptyVersion(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{
		`{"files":[]}`,
		`{"version":"","files":[]}`,
		`{"version":"   ","files":[]}`,
	} {
		if _, err := Decode(strings.NewReader(doc)); !errors.Is(err, ErrEmptyVersion) {
			t.Fatalf("Decode(%s) error = %v, want ErrEmptyVersion", doc, err)
		}
	}
}

func TestDecodeRejectsVersionWithSeparators(t *testing.T) {
	t.Parallel()

	doc := `{"version":"../v1","files":[]}`
	if _, err := Decode(strings.NewReader(doc)); !errors.Is(err, ErrInvalidVersion) {
		t.Fatalf("Decode() error = %v, want ErrInvalidVersion", err)
	}
}

func TestDecodeRejectsUnsafePaths(t *testing.T) {
	t.Parallel()

	doc := `{"version":"v1","files":[{"path":"../escape","hash":"abc","size":1}]}`
	if _, err := Decode(strings.NewReader(doc)); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("Decode() error = %v, want ErrInvalidPath", err)
	}
}

func TestDecodeRejectsBadHashes(t *testing.T) {
	t.Parallel()

	for _, hash := range []string{"", "a/b"} {
		doc := `{"version":"v1","files":[{"path":"f","hash":"` + hash + `","size":1}]}`
		if _, err := Decode(strings.NewReader(doc)); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("Decode(hash=%q) error = %v, want ErrInvalidHash", hash, err)
		}
	}
	if err := ValidateHash(`a\b`); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("ValidateHash() error = %v, want ErrInvalidHash", err)
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	if _, err := Decode(strings.NewReader(`{"version":`)); err == nil {
		t.Fatal("Decode() expected error for malformed JSON")
	}
}
