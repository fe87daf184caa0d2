package ledger

import (
	"errors"
	"fmt"
)

// ErrCaptureNotFound is returned when a referenced capture id does not
// exist in the store.
var ErrCaptureNotFound = errors.New("capture not found")

// StateTransitionError reports an illegal or terminal-state transition
// attempt. It always indicates a caller logic bug or a race and aborts
// any enclosing transaction; it is never retried automatically.
type StateTransitionError struct {
	Current Status
	Next    Status
	Valid   []Status
}

func (e *StateTransitionError) Error() string {
	if IsTerminal(e.Current) {
		return fmt.Sprintf("invalid transition from terminal state %q (attempted %q -> %q)",
			e.Current, e.Current, e.Next)
	}
	return fmt.Sprintf("invalid transition %q -> %q (valid next states: %v)",
		e.Current, e.Next, e.Valid)
}

// AssertTransition enforces the lifecycle table. It is the single
// enforcement point in the system: every status mutation funnels
// through it before touching the store.
func AssertTransition(current, next Status) error {
	if ValidTransition(current, next) {
		return nil
	}
	return &StateTransitionError{
		Current: current,
		Next:    next,
		Valid:   ValidTransitions(current),
	}
}
