// Package backup snapshots the ledger database and ships the snapshot
// to an offsite target. A snapshot is taken with VACUUM INTO, so it is
// a consistent copy even while a writer is active, and may optionally
// be age-encrypted before upload.
package backup

import "io"

// Target stores ledger database snapshots.
type Target interface {
	// Put stores a snapshot under name. size is the number of bytes
	// that will be read from r.
	Put(name string, r io.Reader, size int64) error

	// ValidateSetup verifies that the target is accessible and properly
	// configured.
	ValidateSetup() error
}

// Encryptor encrypts snapshot streams before they leave the machine.
type Encryptor interface {
	// Setup generates and stores the key material, protected by passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// IsConfigured reports whether key material is in place.
	IsConfigured() bool
}
