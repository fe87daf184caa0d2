// Package pipeline drives captures through the export lifecycle. At
// startup it asks the ledger for every non-terminal capture and resumes
// each one from wherever the previous process stopped: transcription,
// deduplication, vault write, and the final transactional export
// record. Processing order is creation order; nothing else in the
// system may assume any ordering across captures.
package pipeline

import (
	"fmt"

	"inlet/internal/ledger"
	"inlet/internal/model"
)

// Pipeline coordinates the ledger service, the transcriber, and the
// vault writer.
type Pipeline struct {
	svc         *ledger.Service
	store       ledger.Store
	vault       ledger.VaultWriter
	transcriber Transcriber
	logger      ledger.Logger
}

// New creates a Pipeline.
func New(svc *ledger.Service, store ledger.Store, vault ledger.VaultWriter, transcriber Transcriber, logger ledger.Logger) *Pipeline {
	return &Pipeline{
		svc:         svc,
		store:       store,
		vault:       vault,
		transcriber: transcriber,
		logger:      logger,
	}
}

// Result summarizes one pipeline run.
type Result struct {
	Processed    int
	Exported     int
	Duplicates   int
	Placeholders int
	Failed       int
}

// Run resumes every recoverable capture. A capture that fails to export
// is counted and left in place for the next run; its error is in the
// error log. Only a recovery-query failure aborts the run.
func (p *Pipeline) Run() (Result, error) {
	var res Result

	pending, err := p.svc.RecoverableCaptures()
	if err != nil {
		return res, err
	}

	for _, rc := range pending {
		res.Processed++
		outcome, err := p.process(rc.ID)
		if err != nil {
			res.Failed++
			p.logger.Error("capture processing failed", "id", rc.ID, "err", err)
			continue
		}
		switch outcome {
		case ledger.ModeInitial:
			res.Exported++
		case ledger.ModeDuplicateSkip:
			res.Duplicates++
		case ledger.ModePlaceholder:
			res.Placeholders++
		}
	}

	p.logger.Info("pipeline run complete",
		"processed", res.Processed, "exported", res.Exported,
		"duplicates", res.Duplicates, "placeholders", res.Placeholders,
		"failed", res.Failed)
	return res, nil
}

// process drives one capture to a terminal status and returns the
// export mode it ended in.
func (p *Pipeline) process(id string) (ledger.ExportMode, error) {
	c, err := p.store.GetCapture(id)
	if err != nil {
		return "", fmt.Errorf("loading capture: %w", err)
	}
	if c == nil {
		return "", fmt.Errorf("processing capture %s: %w", id, ledger.ErrCaptureNotFound)
	}

	switch ledger.Status(c.Status) {
	case ledger.StatusStaged:
		if c.ContentHash.Valid {
			// Already normalized at ingestion (email): export directly.
			return p.export(c)
		}
		return p.transcribeAndExport(c)
	case ledger.StatusTranscribed:
		return p.export(c)
	case ledger.StatusFailedTranscription:
		return p.exportPlaceholder(c)
	default:
		return "", fmt.Errorf("capture %s is not recoverable (status %s)", c.ID, c.Status)
	}
}

func (p *Pipeline) transcribeAndExport(c *model.Capture) (ledger.ExportMode, error) {
	text, err := p.transcriber.Transcribe(c)
	if err != nil {
		p.svc.LogError(&c.ID, ledger.StageTranscribe, err.Error())
		if terr := p.svc.MarkTranscriptionFailed(c.ID); terr != nil {
			return "", fmt.Errorf("marking transcription failed: %w", terr)
		}
		c.Status = string(ledger.StatusFailedTranscription)
		return p.exportPlaceholder(c)
	}

	// Dedup runs against the computed hash before anything is persisted:
	// the unique hash index belongs to the capture that owns the vault
	// copy, so a duplicate keeps its transcript but a null hash column.
	hash := HashContent(text)
	match, err := p.svc.CheckDuplicate(hash)
	if err != nil {
		return "", err
	}
	if match.IsDuplicate {
		if err := p.svc.SetNormalizedContent(c.ID, text, ""); err != nil {
			return "", err
		}
		rec := ledger.ExportRecord{
			VaultPath: match.VaultPath,
			Mode:      ledger.ModeDuplicateSkip,
			Hash:      ledger.HashOf(hash),
		}
		if err := p.svc.RecordExport(c.ID, rec); err != nil {
			return "", err
		}
		return ledger.ModeDuplicateSkip, nil
	}

	if err := p.svc.SetNormalizedContent(c.ID, text, hash); err != nil {
		return "", err
	}
	if err := p.svc.MarkTranscribed(c.ID); err != nil {
		return "", err
	}

	c.RawContent = text
	c.ContentHash.String = hash
	c.ContentHash.Valid = true
	c.Status = string(ledger.StatusTranscribed)
	return p.export(c)
}

// export writes the capture's note unless identical content already
// lives in the vault, then records the decision atomically.
func (p *Pipeline) export(c *model.Capture) (ledger.ExportMode, error) {
	hash := c.ContentHash.String

	match, err := p.svc.CheckDuplicate(hash)
	if err != nil {
		return "", err
	}
	if match.IsDuplicate {
		rec := ledger.ExportRecord{
			VaultPath: match.VaultPath,
			Mode:      ledger.ModeDuplicateSkip,
			Hash:      ledger.HashOf(hash),
		}
		if err := p.svc.RecordExport(c.ID, rec); err != nil {
			return "", err
		}
		return ledger.ModeDuplicateSkip, nil
	}

	path, err := p.vault.WriteNote(noteName(c), renderNote(c))
	if err != nil {
		p.svc.LogError(&c.ID, ledger.StageExport, err.Error())
		return "", fmt.Errorf("writing note: %w", err)
	}

	rec := ledger.ExportRecord{
		VaultPath: path,
		Mode:      ledger.ModeInitial,
		Hash:      ledger.HashOf(hash),
	}
	if err := p.svc.RecordExport(c.ID, rec); err != nil {
		return "", err
	}
	return ledger.ModeInitial, nil
}

// exportPlaceholder writes a stub note for content that could not be
// transcribed. Placeholders carry no content hash.
func (p *Pipeline) exportPlaceholder(c *model.Capture) (ledger.ExportMode, error) {
	path, err := p.vault.WriteNote(noteName(c), renderPlaceholder(c))
	if err != nil {
		p.svc.LogError(&c.ID, ledger.StageExport, err.Error())
		return "", fmt.Errorf("writing placeholder note: %w", err)
	}

	rec := ledger.ExportRecord{
		VaultPath: path,
		Mode:      ledger.ModePlaceholder,
		Hash:      ledger.NoHash(),
	}
	if err := p.svc.RecordExport(c.ID, rec); err != nil {
		return "", err
	}
	return ledger.ModePlaceholder, nil
}
