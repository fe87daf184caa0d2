package vault

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSystemVault(t *testing.T) {
	t.Parallel()

	t.Run("creates inbox directory", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()

		_, err := NewFileSystemVault(root, "")
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}

		info, err := os.Stat(filepath.Join(root, "inbox"))
		if err != nil || !info.IsDir() {
			t.Errorf("inbox directory missing: %v", err)
		}
	})

	t.Run("writes a note and returns its path", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		v, err := NewFileSystemVault(root, "inbox")
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}

		path, err := v.WriteNote("note.md", []byte("# hello\n"))
		if err != nil {
			t.Fatalf("WriteNote() error = %v", err)
		}
		if path != filepath.Join(root, "inbox", "note.md") {
			t.Errorf("path = %s", path)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading note: %v", err)
		}
		if string(content) != "# hello\n" {
			t.Errorf("content = %q", content)
		}
	})

	t.Run("overwrite replaces content", func(t *testing.T) {
		t.Parallel()
		v, err := NewFileSystemVault(t.TempDir(), "inbox")
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}

		if _, err := v.WriteNote("note.md", []byte("first")); err != nil {
			t.Fatalf("WriteNote() error = %v", err)
		}
		path, err := v.WriteNote("note.md", []byte("second"))
		if err != nil {
			t.Fatalf("WriteNote() overwrite error = %v", err)
		}

		content, _ := os.ReadFile(path)
		if string(content) != "second" {
			t.Errorf("content = %q, want second", content)
		}
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		v, err := NewFileSystemVault(root, "inbox")
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}

		if _, err := v.WriteNote("note.md", []byte("content")); err != nil {
			t.Fatalf("WriteNote() error = %v", err)
		}

		entries, err := os.ReadDir(filepath.Join(root, "inbox"))
		if err != nil {
			t.Fatalf("reading inbox: %v", err)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".inlet-") {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	})

	t.Run("creates nested note directories", func(t *testing.T) {
		t.Parallel()
		v, err := NewFileSystemVault(t.TempDir(), "inbox")
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}

		path, err := v.WriteNote(filepath.Join("2025", "03", "note.md"), []byte("x"))
		if err != nil {
			t.Fatalf("WriteNote() nested error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("nested note missing: %v", err)
		}
	})
}
