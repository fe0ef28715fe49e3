// Package statemachine implements the controller's global state guard
// (spec §4.1): a small monitor that holds the current ControllerState and
// arbitrates which transitions are legal.
package statemachine

import "sync"

// State is one of the three phases the test stand can be in.
type State int

const (
	Standby State = iota
	PreIgnite
	Ignite
)

func (s State) String() string {
	switch s {
	case Standby:
		return "Standby"
	case PreIgnite:
		return "PreIgnite"
	case Ignite:
		return "Ignite"
	default:
		return "Unknown"
	}
}

// legal[from] is the set of states from reachable directly.
var legal = map[State]map[State]bool{
	Standby:   {PreIgnite: true},
	PreIgnite: {Standby: true, Ignite: true},
	Ignite:    {Standby: true},
}

// IllegalTransition reports that a requested transition was refused and
// carries the state actually observed at the time of the attempt.
type IllegalTransition struct {
	From, To State
}

func (e *IllegalTransition) Error() string {
	return e.From.String() + " -> " + e.To.String() + " is not a legal transition"
}

// Machine is the shared monitor protecting ControllerState. Build one with
// New, which starts it in Standby, matching the stand's power-on state; the
// zero Machine has no condition variable and is not usable.
type Machine struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state State
}

// New returns a Machine initialized to Standby.
func New() *Machine {
	m := &Machine{state: Standby}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Get returns the current state without blocking.
func (m *Machine) Get() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// TryTransition atomically checks (current, next) against the transition
// table and, on success, moves to next and wakes anyone blocked in
// WaitForChange. Samplers do not wait; they read Get at each tick.
func (m *Machine) TryTransition(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !legal[m.state][next] {
		return &IllegalTransition{From: m.state, To: next}
	}
	m.state = next
	m.cond.Broadcast()
	return nil
}

// Force unconditionally sets the state, bypassing the transition table.
// It exists only for EmergencyStop (spec §4.6), which is legal from any
// state.
func (m *Machine) Force(next State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = next
	m.cond.Broadcast()
}

// WaitForChange blocks until the state differs from last, then returns the
// new state. Samplers may use this to react immediately to a transition,
// though polling Get() at each tick is equally acceptable (spec §4.1).
func (m *Machine) WaitForChange(last State) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.state == last {
		m.cond.Wait()
	}
	return m.state
}
