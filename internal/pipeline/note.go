package pipeline

import (
	"fmt"
	"strings"

	"inlet/internal/model"
)

// noteName returns the vault-relative filename for a capture. Capture
// IDs are time-ordered, so the inbox lists notes in capture order.
func noteName(c *model.Capture) string {
	return c.ID + ".md"
}

// renderNote produces the markdown note for a normalized capture.
func renderNote(c *model.Capture) []byte {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "capture: %s\n", c.ID)
	fmt.Fprintf(&b, "source: %s\n", c.Source)
	fmt.Fprintf(&b, "channel: %s\n", c.Channel)
	fmt.Fprintf(&b, "captured: %s\n", c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(c.RawContent))
	b.WriteString("\n")
	return []byte(b.String())
}

// renderPlaceholder produces the stub note for a capture whose content
// could not be transcribed. The note points back at the capture so the
// original payload can be found once transcription is fixed.
func renderPlaceholder(c *model.Capture) []byte {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "capture: %s\n", c.ID)
	fmt.Fprintf(&b, "source: %s\n", c.Source)
	fmt.Fprintf(&b, "channel: %s\n", c.Channel)
	fmt.Fprintf(&b, "captured: %s\n", c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	b.WriteString("placeholder: true\n")
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "Transcription failed for %s capture %s. The raw payload remains in the staging ledger.\n",
		c.Source, c.ID)
	return []byte(b.String())
}
