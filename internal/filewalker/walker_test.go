package filewalker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"renpy-translator/internal/script"
)

const validSample = `translate french strings:

    # game/script.rpy:14
    old "Hello world"
    new ""
`

const brokenSample = `translate french broken:

    # no quotes here
    some dialogue line
`

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestWalkParsesMatchingFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.rpy", validSample)
	writeFile(t, root, filepath.Join("sub", "b.rpy"), validSample)
	writeFile(t, root, "notes.txt", "not a script")

	files, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("file count = %d, want 2", len(files))
	}
	if !strings.HasSuffix(files[0].Filename, "a.rpy") {
		t.Errorf("first file = %q, want a.rpy", files[0].Filename)
	}
	if !strings.HasSuffix(files[1].Filename, filepath.Join("sub", "b.rpy")) {
		t.Errorf("second file = %q, want sub/b.rpy", files[1].Filename)
	}
	if len(files[0].DialogueLines()) != 1 {
		t.Errorf("parsed lines = %d, want 1", len(files[0].DialogueLines()))
	}
}

func TestWalkPropagatesParseErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "good.rpy", validSample)
	writeFile(t, root, "z_broken.rpy", brokenSample)

	_, err := Walk(root)
	var parseErr *script.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want *script.ParseError", err)
	}
	if !strings.HasSuffix(parseErr.File, "z_broken.rpy") {
		t.Errorf("error names %q, want the broken file", parseErr.File)
	}
}

func TestWalkRejectsNonDirectoryRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.rpy", validSample)

	if _, err := Walk(filepath.Join(root, "a.rpy")); err == nil {
		t.Error("Walk should reject a file root")
	}
	if _, err := Walk(filepath.Join(root, "missing")); err == nil {
		t.Error("Walk should reject a missing root")
	}
}
