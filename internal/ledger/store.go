package ledger

import (
	"time"

	"inlet/internal/model"
)

// Store provides an interface for the durable staging ledger storage.
// Implementations are single-process, single-writer embedded stores;
// atomicity guarantees come from the store's own transaction semantics.
type Store interface {
	// Capture operations

	// InsertCapture inserts a new capture row. The caller supplies ID,
	// status, and timestamps. A duplicate content hash or a duplicate
	// (channel, channel_native_id) pair fails the uniqueness constraint.
	InsertCapture(c *model.Capture) error

	// GetCapture returns a capture by id, or nil when absent.
	GetCapture(id string) (*model.Capture, error)

	// FindCaptureByNativeID returns the capture with the given
	// source-native key, or nil when absent.
	FindCaptureByNativeID(channel, nativeID string) (*model.Capture, error)

	// SetCaptureContent updates raw_content and content_hash on an
	// existing capture. Status is untouched; data updates from the
	// normalizer never change lifecycle state directly.
	SetCaptureContent(id, rawContent, contentHash string, updatedAt time.Time) error

	// UpdateCaptureStatus sets status and bumps updated_at. Callers must
	// have validated the transition through AssertTransition first.
	UpdateCaptureStatus(id string, status Status, updatedAt time.Time) error

	// FindEarliestExportedByHash returns the duplicate match for a
	// content hash, considering only captures already committed to the
	// vault (status exported or exported_duplicate). When several match,
	// the earliest created_at wins. Returns nil when there is no match.
	FindEarliestExportedByHash(hash string) (*DuplicateMatch, error)

	// RecordExport atomically inserts the audit row and moves the
	// capture to target. The transition is re-validated against the
	// capture's current status inside the transaction; on any failure
	// nothing is committed. Returns ErrCaptureNotFound when the capture
	// does not exist and *StateTransitionError when the move is illegal.
	RecordExport(audit model.ExportAudit, target Status) error

	// Recovery

	// RecoverableCaptures returns every non-terminal capture ordered by
	// created_at ascending. Used at process startup to rebuild in-flight
	// work after a crash or restart.
	RecoverableCaptures() ([]RecoverableCapture, error)

	// Error log

	// InsertErrorLog appends a diagnostic entry. captureID may be nil
	// for system-level errors.
	InsertErrorLog(captureID *string, stage Stage, message string, createdAt time.Time) error

	// TrimErrorLog deletes entries older than before and returns the
	// number of rows removed.
	TrimErrorLog(before time.Time) (int64, error)

	// Sync state

	// GetSyncState returns the value for a cursor key and whether it exists.
	GetSyncState(key string) (string, bool, error)

	// SetSyncState upserts a cursor value in place.
	SetSyncState(key, value string, updatedAt time.Time) error

	// Aggregates (read-only, used by health tooling)

	// CountCapturesByStatus returns capture counts keyed by status.
	CountCapturesByStatus() (map[Status]int64, error)

	// CountErrorsSince returns the number of error log entries created
	// at or after since.
	CountErrorsSince(since time.Time) (int64, error)

	// BackupTo writes a complete consistent copy of the ledger database
	// to destPath.
	BackupTo(destPath string) error

	// Close closes the underlying database connection.
	Close() error
}

// VaultWriter is the black-box note vault file writer. WriteNote places
// content at the relative path inside the vault atomically and returns
// the absolute written path.
type VaultWriter interface {
	WriteNote(relPath string, content []byte) (string, error)
}
