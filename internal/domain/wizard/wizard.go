package wizard

import (
	"fmt"
	"strings"
	"time"

	"advtopup/internal/domain/operator"
)

// Step indexes the fixed, ordered purchase wizard steps.
type Step int

const (
	StepCountry Step = iota
	StepPhone
	StepNetwork
	StepAmount
	StepConfirm

	stepCount
)

func (s Step) String() string {
	switch s {
	case StepCountry:
		return "country"
	case StepPhone:
		return "phone"
	case StepNetwork:
		return "network"
	case StepAmount:
		return "amount"
	case StepConfirm:
		return "confirm"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Flow selects the purchase variant driven by the wizard.
type Flow string

const (
	FlowAirtime Flow = "airtime"
	FlowData    Flow = "data"
)

// minPhoneDigits is the minimum recipient number length accepted at the
// phone step.
const minPhoneDigits = 7

// State is one wizard session. It exists only between creation and
// successful completion (or expiry) and is never shared across sessions.
type State struct {
	ID   string `json:"id"`
	Flow Flow   `json:"flow"`
	Step Step   `json:"step"`

	CountryCode    string `json:"countryCode"`
	RecipientPhone string `json:"recipientPhone"`

	// Provider names the fulfillment provider the purchase will route to;
	// it follows the flow and country selection.
	Provider string `json:"provider,omitempty"`

	// Sender profile captured at session start; consumed by payment
	// initiation and fulfillment.
	SenderPhone string `json:"senderPhone"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`

	Operator *operator.Info `json:"operator,omitempty"`

	Amount float64          `json:"amount,omitempty"`
	Bundle *operator.Bundle `json:"bundle,omitempty"`

	// Busy guards against a second advance or submit while one is in
	// flight.
	Busy bool `json:"busy"`

	CreatedAt time.Time `json:"createdAt"`
}

// New starts a wizard session at the country step.
func New(id string, flow Flow, now time.Time) *State {
	return &State{ID: id, Flow: flow, Step: StepCountry, CreatedAt: now}
}

// ValidateStep is the pure per-step gate: it reports whether the fields a
// step requires are populated and valid.
func (s *State) ValidateStep(step Step) bool {
	switch step {
	case StepCountry:
		return s.CountryCode != ""
	case StepPhone:
		return len(digits(s.RecipientPhone)) >= minPhoneDigits
	case StepNetwork:
		return s.Operator != nil
	case StepAmount:
		if s.Operator == nil {
			return false
		}
		if s.Flow == FlowData {
			return s.Bundle != nil
		}
		return s.Operator.AmountInRange(s.Amount)
	case StepConfirm:
		for st := StepCountry; st < StepConfirm; st++ {
			if !s.ValidateStep(st) {
				return false
			}
		}
		return true
	}
	return false
}

// BeginAdvance marks an advance from the current step as in flight.
// It refuses when the step's gate fails, when another advance is already
// running, or when the session already sits on the terminal step.
func (s *State) BeginAdvance() error {
	if s.Busy {
		return ErrBusy
	}
	if s.Step >= StepConfirm {
		return ErrAtFinalStep
	}
	if !s.ValidateStep(s.Step) {
		return &ValidationError{Step: s.Step}
	}
	s.Busy = true
	return nil
}

// FinishAdvance commits the in-flight advance and moves to the next step.
func (s *State) FinishAdvance() {
	if s.Busy && s.Step < StepConfirm {
		s.Step++
	}
	s.Busy = false
}

// AbortAdvance releases the busy flag without moving.
func (s *State) AbortAdvance() {
	s.Busy = false
}

// Retreat steps back one step. Crossing the network boundary backwards
// invalidates the resolved operator and any dependent selections, forcing
// re-resolution with the (possibly edited) phone number.
func (s *State) Retreat() {
	if s.Step == StepCountry || s.Busy {
		return
	}
	s.Step--
	if s.Step < StepNetwork {
		s.Operator = nil
		s.Amount = 0
		s.Bundle = nil
	}
}

// SetOperator installs a freshly resolved operator and its default amount.
func (s *State) SetOperator(op *operator.Info, defaultAmount float64) {
	s.Operator = op
	if s.Flow == FlowAirtime {
		s.Amount = defaultAmount
	}
}

// PaymentAmount is the amount charged through the hosted checkout.
func (s *State) PaymentAmount() float64 {
	if s.Flow == FlowData && s.Bundle != nil {
		if s.Bundle.Local && s.Operator != nil && s.Operator.FXRate > 0 {
			return round2(s.Bundle.Amount / s.Operator.FXRate)
		}
		return s.Bundle.Amount
	}
	return s.Amount
}

// CanSubmit reports whether the terminal submit action is reachable.
func (s *State) CanSubmit() bool {
	return s.Step == StepConfirm && s.ValidateStep(StepConfirm)
}

func digits(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
