package ledger_test

import (
	"testing"

	"inlet/internal/ledger"
)

func TestValidTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current ledger.Status
		next    ledger.Status
		want    bool
	}{
		{"staged to transcribed", ledger.StatusStaged, ledger.StatusTranscribed, true},
		{"staged to failed_transcription", ledger.StatusStaged, ledger.StatusFailedTranscription, true},
		{"staged to exported_duplicate", ledger.StatusStaged, ledger.StatusExportedDuplicate, true},
		{"staged directly to exported", ledger.StatusStaged, ledger.StatusExported, true},
		{"staged to exported_placeholder", ledger.StatusStaged, ledger.StatusExportedPlaceholder, false},
		{"transcribed to exported", ledger.StatusTranscribed, ledger.StatusExported, true},
		{"transcribed to exported_duplicate", ledger.StatusTranscribed, ledger.StatusExportedDuplicate, true},
		{"transcribed to exported_placeholder", ledger.StatusTranscribed, ledger.StatusExportedPlaceholder, false},
		{"transcribed back to staged", ledger.StatusTranscribed, ledger.StatusStaged, false},
		{"failed_transcription to exported_placeholder", ledger.StatusFailedTranscription, ledger.StatusExportedPlaceholder, true},
		{"failed_transcription to exported", ledger.StatusFailedTranscription, ledger.StatusExported, false},
		{"exported to anything", ledger.StatusExported, ledger.StatusTranscribed, false},
		{"exported_duplicate to exported", ledger.StatusExportedDuplicate, ledger.StatusExported, false},
		{"exported_placeholder to staged", ledger.StatusExportedPlaceholder, ledger.StatusStaged, false},
		{"unknown current state", ledger.Status("archived"), ledger.StatusExported, false},
		{"unknown next state", ledger.StatusStaged, ledger.Status("archived"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ledger.ValidTransition(tt.current, tt.next); got != tt.want {
				t.Errorf("ValidTransition(%q, %q) = %v, want %v", tt.current, tt.next, got, tt.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	terminal := []ledger.Status{
		ledger.StatusExported,
		ledger.StatusExportedDuplicate,
		ledger.StatusExportedPlaceholder,
	}
	for _, s := range terminal {
		if !ledger.IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = false, want true", s)
		}
	}

	nonTerminal := []ledger.Status{
		ledger.StatusStaged,
		ledger.StatusTranscribed,
		ledger.StatusFailedTranscription,
	}
	for _, s := range nonTerminal {
		if ledger.IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = true, want false", s)
		}
	}

	// unknown states are not terminal, just unknown
	if ledger.IsTerminal(ledger.Status("exported_extra")) {
		t.Error("IsTerminal should not treat unknown exported_* states as terminal")
	}
}

func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	t.Parallel()

	for _, s := range []ledger.Status{
		ledger.StatusExported,
		ledger.StatusExportedDuplicate,
		ledger.StatusExportedPlaceholder,
	} {
		if got := ledger.ValidTransitions(s); len(got) != 0 {
			t.Errorf("ValidTransitions(%q) = %v, want empty", s, got)
		}
	}
}

func TestValidTransitionsReturnsCopy(t *testing.T) {
	t.Parallel()

	first := ledger.ValidTransitions(ledger.StatusStaged)
	if len(first) == 0 {
		t.Fatal("expected staged to have outgoing transitions")
	}
	first[0] = ledger.Status("mutated")

	second := ledger.ValidTransitions(ledger.StatusStaged)
	if second[0] == ledger.Status("mutated") {
		t.Error("ValidTransitions exposed internal state to mutation")
	}
}

func TestKnown(t *testing.T) {
	t.Parallel()

	for _, s := range []ledger.Status{
		ledger.StatusStaged,
		ledger.StatusTranscribed,
		ledger.StatusFailedTranscription,
		ledger.StatusExported,
		ledger.StatusExportedDuplicate,
		ledger.StatusExportedPlaceholder,
	} {
		if !ledger.Known(s) {
			t.Errorf("Known(%q) = false, want true", s)
		}
	}

	if ledger.Known(ledger.Status("archived")) {
		t.Error("Known(archived) = true, want false")
	}
}
