package model

import (
	"database/sql"
	"time"
)

// Capture represents one inbound item (voice memo or email) tracked
// through its lifecycle. The ID is a UUIDv7, so lexicographic order
// follows creation order.
type Capture struct {
	ID              string
	Source          string         // "voice" or "email"
	RawContent      string         // empty until normalization/transcription fills it
	ContentHash     sql.NullString // SHA-256 over normalized content; unique when present
	Status          string
	Channel         string // source channel, e.g. "icloud_voice", "imap"
	ChannelNativeID string // source-native identifier, unique per channel
	MetaJSON        string // free-form source-specific metadata
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ExportAudit is one immutable row per export decision. Rows are never
// updated or deleted outside test cleanup.
type ExportAudit struct {
	ID           string
	CaptureID    string
	VaultPath    string
	HashAtExport sql.NullString // absent for placeholder exports
	Mode         string         // "initial", "duplicate_skip", or "placeholder"
	ErrorFlag    bool
	ExportedAt   time.Time
}

// ErrorLog is a diagnostic entry. CaptureID is null for system-level
// errors not tied to one capture.
type ErrorLog struct {
	ID        int64
	CaptureID sql.NullString
	Stage     string // "poll", "transcribe", "export", "backup", "integrity"
	Message   string
	CreatedAt time.Time
}

// SyncStateEntry is one cursor in the sync_state key/value table,
// e.g. the last successful poll timestamp per channel or the schema
// version marker. Upserted in place; no history kept.
type SyncStateEntry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
