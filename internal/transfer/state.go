package transfer

import (
	"fmt"
	"sync"
)

// State is the phase of the upload form.
type State int

const (
	StateIdle State = iota
	StateCollecting
	StateCompressing
	StateUploading
	StateCancelled
	StateSucceeded
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateCollecting:  "collecting",
	StateCompressing: "compressing",
	StateUploading:   "uploading",
	StateCancelled:   "cancelled",
	StateSucceeded:   "succeeded",
	StateFailed:      "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Busy reports whether s is a phase during which no other operation may start.
func (s State) Busy() bool {
	return s == StateCollecting || s == StateCompressing || s == StateUploading
}

// transitions lists the allowed targets from each state. Idle, Cancelled,
// Succeeded and Failed are resting states and accept the same targets.
var transitions = map[State][]State{
	StateIdle:        {StateCollecting, StateCompressing, StateUploading},
	StateCancelled:   {StateIdle, StateCollecting, StateCompressing, StateUploading},
	StateSucceeded:   {StateIdle, StateCollecting, StateCompressing, StateUploading},
	StateFailed:      {StateIdle, StateCollecting, StateCompressing, StateUploading},
	StateCollecting:  {StateIdle},
	StateCompressing: {StateUploading, StateFailed},
	StateUploading:   {StateSucceeded, StateFailed, StateCancelled},
}

// Machine holds the current State and enforces the transition table.
// Only one of Collecting, Compressing or Uploading can be active at a time.
type Machine struct {
	mu    sync.Mutex
	state State
}

// NewMachine returns a Machine in StateIdle.
func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Busy reports whether an operation is in flight.
func (m *Machine) Busy() bool {
	return m.State().Busy()
}

// Begin moves into a busy state. It returns ErrBusy if another operation is
// already in flight.
func (m *Machine) Begin(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Busy() {
		return ErrBusy
	}
	return m.transitionLocked(to)
}

// Transition moves to the given state if the table allows it.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitionLocked(to)
}

func (m *Machine) transitionLocked(to State) error {
	for _, allowed := range transitions[m.state] {
		if allowed == to {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
}
