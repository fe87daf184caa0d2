package ledger

import "time"

// Source identifies where a capture came from.
type Source string

const (
	SourceVoice Source = "voice"
	SourceEmail Source = "email"
)

// ExportMode classifies an export decision.
type ExportMode string

const (
	// ModeInitial is a first-time export of real content.
	ModeInitial ExportMode = "initial"
	// ModeDuplicateSkip records that the vault write was skipped because
	// identical content was already exported.
	ModeDuplicateSkip ExportMode = "duplicate_skip"
	// ModePlaceholder records a stub note written for content that could
	// not be transcribed.
	ModePlaceholder ExportMode = "placeholder"
)

// Stage identifies the pipeline stage an error log entry belongs to.
type Stage string

const (
	StagePoll       Stage = "poll"
	StageTranscribe Stage = "transcribe"
	StageExport     Stage = "export"
	StageBackup     Stage = "backup"
	StageIntegrity  Stage = "integrity"
)

// ExportHash is the optional content hash recorded on an audit row.
// Placeholder exports carry no hash, and that absence is part of the
// type rather than a nil check at every use site.
type ExportHash struct {
	digest string
	valid  bool
}

// HashOf returns a present ExportHash.
func HashOf(digest string) ExportHash {
	return ExportHash{digest: digest, valid: true}
}

// NoHash returns an absent ExportHash.
func NoHash() ExportHash {
	return ExportHash{}
}

// Digest returns the hash digest and whether it is present.
func (h ExportHash) Digest() (string, bool) {
	return h.digest, h.valid
}

// ExportRecord is the caller-supplied description of one export
// decision, turned into an ExportAudit row by RecordExport.
type ExportRecord struct {
	VaultPath string
	Mode      ExportMode
	Hash      ExportHash
	ErrorFlag bool
}

// TargetStatus returns the capture status this export decision leads to.
func (r ExportRecord) TargetStatus() Status {
	switch {
	case r.Mode == ModeDuplicateSkip:
		return StatusExportedDuplicate
	case r.Mode == ModePlaceholder || r.ErrorFlag:
		return StatusExportedPlaceholder
	default:
		return StatusExported
	}
}

// DuplicateMatch is the result of a content-hash duplicate lookup.
type DuplicateMatch struct {
	IsDuplicate bool
	CaptureID   string // earliest exported capture with the hash
	VaultPath   string // where its content landed in the vault
}

// RecoverableCapture is one non-terminal capture returned by the
// crash-recovery query, in first-in-first-out resumption order.
type RecoverableCapture struct {
	ID        string
	Status    Status
	CreatedAt time.Time
}

// IngestRequest describes a new capture handed over by a poller.
// RawContent may be empty (voice) or the full normalized body (email).
type IngestRequest struct {
	Source          Source
	Channel         string
	ChannelNativeID string
	RawContent      string
	ContentHash     string // empty until normalization; set for email
	MetaJSON        string
}
