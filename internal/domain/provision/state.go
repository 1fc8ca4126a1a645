// Where: cli/internal/domain/provision/state.go
// What: Provisioning state machine over a working directory.
// Why: Make the legal stage order explicit and checkable.
package provision

import (
	"errors"
	"fmt"
)

// State is a provisioning stage.
type State string

const (
	StateClean            State = "clean"
	StateInitialized      State = "initialized"
	StateValidated        State = "validated"
	StatePlanComputed     State = "plan_computed"
	StateApplied          State = "applied"
	StateOutputsExtracted State = "outputs_extracted"
	StateFailed           State = "failed"
)

var ErrInvalidTransition = errors.New("invalid provisioning state transition")

// validTransitions lists the allowed next states. Failed is reachable from
// every non-terminal state.
var validTransitions = map[State][]State{
	StateClean:            {StateInitialized, StateFailed},
	StateInitialized:      {StateValidated, StateFailed},
	StateValidated:        {StatePlanComputed, StateFailed},
	StatePlanComputed:     {StateApplied, StateFailed},
	StateApplied:          {StateOutputsExtracted, StateFailed},
	StateOutputsExtracted: {},
	StateFailed:           {},
}

// ValidateTransition checks whether from -> to is allowed.
func ValidateTransition(from, to State) error {
	allowed, ok := validTransitions[from]
	if !ok {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateOutputsExtracted || s == StateFailed
}

// Machine tracks the current state and the history of visited states.
type Machine struct {
	current State
	history []State
}

// NewMachine starts in StateClean.
func NewMachine() *Machine {
	return &Machine{current: StateClean, history: []State{StateClean}}
}

func (m *Machine) Current() State { return m.current }

// History returns the visited states in order.
func (m *Machine) History() []State {
	return append([]State(nil), m.history...)
}

// Transition moves to the next state when the move is legal.
func (m *Machine) Transition(to State) error {
	if err := ValidateTransition(m.current, to); err != nil {
		return err
	}
	m.current = to
	m.history = append(m.history, to)
	return nil
}

// Fail moves to StateFailed from any non-terminal state.
func (m *Machine) Fail() {
	if m.current.IsTerminal() {
		return
	}
	m.current = StateFailed
	m.history = append(m.history, StateFailed)
}
