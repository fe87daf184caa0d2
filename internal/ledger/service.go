package ledger

import (
	"encoding/json"
	"fmt"

	"inlet/internal/model"
)

// Service is the staging ledger orchestration layer: source-native and
// content-hash deduplication, guarded status transitions, transactional
// export recording, and best-effort error logging.
//
// The service exclusively owns writes to capture status and export
// audit rows. Collaborators (pollers, the transcriber) hand it results;
// they never touch status themselves.
type Service struct {
	store   Store
	logger  Logger
	clock   Clock
	idgen   IDGenerator
	metrics MetricsRecorder
}

// NewService creates a Service with the provided dependencies.
func NewService(store Store, logger Logger, clock Clock, idgen IDGenerator, metrics MetricsRecorder) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		clock:   clock,
		idgen:   idgen,
		metrics: metrics,
	}
}

// Ingest records a new capture in staged status. If a capture with the
// same (channel, channel_native_id) pair already exists, that capture is
// returned instead and created is false: re-polling the same source item
// must not produce a second row.
func (s *Service) Ingest(req IngestRequest) (capture *model.Capture, created bool, err error) {
	existing, err := s.store.FindCaptureByNativeID(req.Channel, req.ChannelNativeID)
	if err != nil {
		return nil, false, fmt.Errorf("checking source-native key: %w", err)
	}
	if existing != nil {
		s.logger.Debug("capture already ingested",
			"channel", req.Channel, "native_id", req.ChannelNativeID, "id", existing.ID)
		return existing, false, nil
	}

	now := s.clock.Now()
	c := &model.Capture{
		ID:              s.idgen.New(),
		Source:          string(req.Source),
		RawContent:      req.RawContent,
		Status:          string(StatusStaged),
		Channel:         req.Channel,
		ChannelNativeID: req.ChannelNativeID,
		MetaJSON:        req.MetaJSON,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.ContentHash != "" {
		c.ContentHash.String = req.ContentHash
		c.ContentHash.Valid = true
	}
	if c.MetaJSON == "" {
		c.MetaJSON = "{}"
	} else if !json.Valid([]byte(c.MetaJSON)) {
		return nil, false, fmt.Errorf("ingesting capture: meta is not valid JSON")
	}

	if err := s.store.InsertCapture(c); err != nil {
		return nil, false, fmt.Errorf("inserting capture: %w", err)
	}

	s.logger.Info("capture staged", "id", c.ID, "source", c.Source, "channel", c.Channel)
	s.metrics.Count("ledger.ingest", 1, map[string]string{"source": c.Source})
	return c, true, nil
}

// SetNormalizedContent stores the transcription/normalization result on
// a capture. This is a pure data update; the lifecycle transition is a
// separate call so a crash between the two leaves a recoverable row.
func (s *Service) SetNormalizedContent(captureID, rawContent, contentHash string) error {
	if err := s.store.SetCaptureContent(captureID, rawContent, contentHash, s.clock.Now()); err != nil {
		return fmt.Errorf("setting normalized content: %w", err)
	}
	return nil
}

// MarkTranscribed moves a capture from staged to transcribed.
func (s *Service) MarkTranscribed(captureID string) error {
	return s.transition(captureID, StatusTranscribed)
}

// MarkTranscriptionFailed moves a capture from staged to
// failed_transcription after the transcriber gave up.
func (s *Service) MarkTranscriptionFailed(captureID string) error {
	return s.transition(captureID, StatusFailedTranscription)
}

// transition loads the capture, validates the move through the single
// enforcement point, and applies it.
func (s *Service) transition(captureID string, next Status) error {
	c, err := s.store.GetCapture(captureID)
	if err != nil {
		return fmt.Errorf("loading capture: %w", err)
	}
	if c == nil {
		return fmt.Errorf("transitioning capture %s: %w", captureID, ErrCaptureNotFound)
	}

	if err := AssertTransition(Status(c.Status), next); err != nil {
		return err
	}

	if err := s.store.UpdateCaptureStatus(captureID, next, s.clock.Now()); err != nil {
		return fmt.Errorf("updating capture status: %w", err)
	}

	s.logger.Debug("capture transitioned", "id", captureID, "from", c.Status, "to", next)
	return nil
}

// CheckDuplicate looks up whether content with this hash has already
// been committed to the vault. Only captures whose status is exported or
// exported_duplicate count as matches: staged rows with a matching hash
// have no audit trail yet and must not suppress a real export. When
// multiple matches exist the earliest created_at wins, so every
// duplicate points at the original.
//
// A storage failure here is logged as a system-level export error and
// returned: silently skipping dedup on error risks double-export.
func (s *Service) CheckDuplicate(contentHash string) (DuplicateMatch, error) {
	start := s.clock.Now()
	match, err := s.store.FindEarliestExportedByHash(contentHash)
	s.metrics.Timing("ledger.dedup.lookup", s.clock.Now().Sub(start), nil)
	if err != nil {
		s.LogError(nil, StageExport, fmt.Sprintf("duplicate lookup failed for hash %s: %v", contentHash, err))
		return DuplicateMatch{}, fmt.Errorf("duplicate lookup: %w", err)
	}
	if match == nil {
		return DuplicateMatch{}, nil
	}

	s.metrics.Count("ledger.dedup.hit", 1, map[string]string{"layer": "content_hash"})
	s.logger.Info("duplicate content detected",
		"hash", contentHash, "original", match.CaptureID, "path", match.VaultPath)
	return *match, nil
}

// RecordExport writes the audit row for one export decision and moves
// the capture to its terminal status, atomically. Either both effects
// land or neither does; a crash mid-call never leaves an audit row
// without the matching status update or vice versa.
func (s *Service) RecordExport(captureID string, rec ExportRecord) error {
	target := rec.TargetStatus()

	audit := model.ExportAudit{
		ID:         s.idgen.New(),
		CaptureID:  captureID,
		VaultPath:  rec.VaultPath,
		Mode:       string(rec.Mode),
		ErrorFlag:  rec.ErrorFlag,
		ExportedAt: s.clock.Now(),
	}
	if digest, ok := rec.Hash.Digest(); ok {
		audit.HashAtExport.String = digest
		audit.HashAtExport.Valid = true
	}

	if err := s.store.RecordExport(audit, target); err != nil {
		return err
	}

	s.logger.Info("export recorded",
		"id", captureID, "mode", rec.Mode, "status", target, "path", rec.VaultPath)
	s.metrics.Count("ledger.export", 1, map[string]string{"mode": string(rec.Mode)})
	if target == StatusExportedPlaceholder {
		s.metrics.Count("ledger.export.placeholder", 1, nil)
	}
	return nil
}

// LogError appends a diagnostic entry. Failures are swallowed: errors
// logging errors must not cascade into the main control flow.
func (s *Service) LogError(captureID *string, stage Stage, message string) {
	if err := s.store.InsertErrorLog(captureID, stage, message, s.clock.Now()); err != nil {
		s.logger.Warn("error log insert failed", "stage", stage, "err", err)
	}
}

// RecoverableCaptures returns all non-terminal captures in
// first-in-first-out resumption order. Called at process startup to
// rebuild in-flight work after a crash or restart.
func (s *Service) RecoverableCaptures() ([]RecoverableCapture, error) {
	pending, err := s.store.RecoverableCaptures()
	if err != nil {
		return nil, fmt.Errorf("querying recoverable captures: %w", err)
	}
	return pending, nil
}
