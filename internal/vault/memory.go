package vault

import (
	"path"
	"sync"

	"inlet/internal/ledger"
)

// MemoryVault is an in-memory implementation of the vault writer.
// Useful for tests. Safe for concurrent use.
type MemoryVault struct {
	mu    sync.Mutex
	notes map[string][]byte
}

// NewMemoryVault creates a new in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{notes: make(map[string][]byte)}
}

// WriteNote stores content under relPath and returns a synthetic
// absolute path.
func (v *MemoryVault) WriteNote(relPath string, content []byte) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	stored := make([]byte, len(content))
	copy(stored, content)
	v.notes[relPath] = stored
	return path.Join("/vault/inbox", relPath), nil
}

// Note returns the stored content for relPath and whether it exists.
func (v *MemoryVault) Note(relPath string) ([]byte, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	content, ok := v.notes[relPath]
	return content, ok
}

// Len returns the number of stored notes.
func (v *MemoryVault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.notes)
}

// Compile-time check that MemoryVault implements ledger.VaultWriter
var _ ledger.VaultWriter = (*MemoryVault)(nil)
