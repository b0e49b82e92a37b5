package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy means an advance or submit is already in flight for the
	// session.
	ErrBusy = errors.New("wizard: operation already in flight")

	// ErrAtFinalStep means Advance was requested from the confirm step,
	// which only Submit may leave.
	ErrAtFinalStep = errors.New("wizard: already at final step")

	// ErrNotSubmittable means Submit was requested before the confirm
	// step was reached with all gates passing.
	ErrNotSubmittable = errors.New("wizard: session not ready to submit")
)

// ValidationError reports which step's gate blocked progression.
type ValidationError struct {
	Step    Step
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("wizard: %s step invalid: %s", e.Step, e.Message)
	}
	return fmt.Sprintf("wizard: %s step incomplete or invalid", e.Step)
}
