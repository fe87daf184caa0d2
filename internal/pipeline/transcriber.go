package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"inlet/internal/model"
)

// Transcriber turns a staged capture's raw payload into normalized
// text. Implementations are external collaborators (speech-to-text
// engines); they return results and never touch capture status.
type Transcriber interface {
	Transcribe(c *model.Capture) (string, error)
}

// PassthroughTranscriber handles captures whose payload is already
// text, such as email bodies. It fails on empty content so genuinely
// unprocessable captures end up as placeholders instead of exporting
// empty notes.
type PassthroughTranscriber struct{}

var _ Transcriber = (*PassthroughTranscriber)(nil)

func (PassthroughTranscriber) Transcribe(c *model.Capture) (string, error) {
	text := strings.TrimSpace(c.RawContent)
	if text == "" {
		return "", fmt.Errorf("capture %s has no transcribable content", c.ID)
	}
	return text, nil
}

// HashContent returns the hex SHA-256 digest of normalized content.
// This digest is the content-level deduplication key.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
