package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSystemTarget stores snapshots as files in a directory, typically
// on a different disk than the live ledger.
type FileSystemTarget struct {
	dir string
}

// NewFileSystemTarget creates a filesystem backup target rooted at dir.
func NewFileSystemTarget(dir string) (*FileSystemTarget, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &FileSystemTarget{dir: dir}, nil
}

// Put writes the snapshot to <dir>/<name> via a temp file and rename,
// so a partially written snapshot is never left under the final name.
func (t *FileSystemTarget) Put(name string, r io.Reader, size int64) error {
	destPath := filepath.Join(t.dir, name)

	tmp, err := os.CreateTemp(t.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if written != size {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing snapshot file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("placing snapshot: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the backup directory is accessible.
func (t *FileSystemTarget) ValidateSetup() error {
	info, err := os.Stat(t.dir)
	if err != nil {
		return fmt.Errorf("backup directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("backup path is not a directory: %s", t.dir)
	}
	return nil
}

var _ Target = (*FileSystemTarget)(nil)
