package ledger

// Status is a capture lifecycle state.
type Status string

const (
	StatusStaged              Status = "staged"
	StatusTranscribed         Status = "transcribed"
	StatusFailedTranscription Status = "failed_transcription"
	StatusExported            Status = "exported"
	StatusExportedDuplicate   Status = "exported_duplicate"
	StatusExportedPlaceholder Status = "exported_placeholder"
)

// transitions is the complete lifecycle table. Statuses absent from the
// map (terminal or unknown) admit no outgoing transitions.
//
// staged may go directly to exported for sources whose content is already
// normalized at ingestion (email bodies need no transcription pass).
var transitions = map[Status][]Status{
	StatusStaged: {
		StatusTranscribed,
		StatusFailedTranscription,
		StatusExportedDuplicate,
		StatusExported,
	},
	StatusTranscribed: {
		StatusExported,
		StatusExportedDuplicate,
	},
	StatusFailedTranscription: {
		StatusExportedPlaceholder,
	},
}

// terminal is the explicit set of states with no outgoing transitions.
// Kept as an enumerated set rather than a name-prefix test so adding a
// non-terminal status that happens to start with "exported" can never
// silently freeze captures.
var terminal = map[Status]bool{
	StatusExported:            true,
	StatusExportedDuplicate:   true,
	StatusExportedPlaceholder: true,
}

// ValidTransition reports whether current may move to next.
// Unknown states are closed-world: always false.
func ValidTransition(current, next Status) bool {
	for _, s := range transitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// ValidTransitions returns the allowed next states for current.
// Terminal and unknown states return an empty slice.
func ValidTransitions(current Status) []Status {
	allowed := transitions[current]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

// IsTerminal reports whether s admits zero outgoing transitions.
func IsTerminal(s Status) bool {
	return terminal[s]
}

// Known reports whether s is one of the six lifecycle states.
func Known(s Status) bool {
	return terminal[s] || transitions[s] != nil
}
