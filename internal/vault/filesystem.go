package vault

import (
	"fmt"
	"os"
	"path/filepath"

	"inlet/internal/ledger"
)

// FileSystemVault writes finalized notes into a note-taking vault on
// the local filesystem:
//
//	<root>/
//	  <inbox>/
//	    <note files>
//
// Writes are atomic: content goes to a temp file in the target
// directory first and is renamed into place, so a crash mid-write never
// leaves a partial note for the vault application to pick up.
type FileSystemVault struct {
	root  string
	inbox string
}

// NewFileSystemVault creates a vault writer rooted at the given path.
// inbox is the subdirectory notes land in; empty defaults to "inbox".
func NewFileSystemVault(root, inbox string) (*FileSystemVault, error) {
	if inbox == "" {
		inbox = "inbox"
	}
	if err := os.MkdirAll(filepath.Join(root, inbox), 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault inbox: %w", err)
	}
	return &FileSystemVault{root: root, inbox: inbox}, nil
}

// WriteNote atomically places content at relPath inside the vault inbox
// and returns the absolute written path.
func (v *FileSystemVault) WriteNote(relPath string, content []byte) (string, error) {
	destPath := filepath.Join(v.root, v.inbox, relPath)

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating note directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".inlet-*")
	if err != nil {
		return "", fmt.Errorf("creating temp note file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing note content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("syncing note content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp note file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("placing note: %w", err)
	}

	return destPath, nil
}

// Compile-time check that FileSystemVault implements ledger.VaultWriter
var _ ledger.VaultWriter = (*FileSystemVault)(nil)
