// Package fsm implements a single-active-state machine with enter/exit/update
// hooks. It is domain agnostic: owners register state factories by name and
// drive the machine from their own update loop.
package fsm

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownState = errors.New("fsm: unknown state")
	ErrNilState     = errors.New("fsm: factory returned nil state")
)

// State is one behaviour mode. I is the per-update input the owner feeds in.
type State[I any] interface {
	Name() string
	Enter(prev State[I]) // prev is nil on the first transition
	Exit()
	Update(dt time.Duration, input I)
}

// Factory builds a fresh state instance for the given machine.
type Factory[I any] func(m *Machine[I]) State[I]

// Base gives concrete states no-op hooks to embed.
type Base[I any] struct{}

func (Base[I]) Enter(State[I])          {}
func (Base[I]) Exit()                   {}
func (Base[I]) Update(time.Duration, I) {}

// Machine holds the state registry and at most one current state.
// Not safe for concurrent use; owned by the game loop goroutine.
type Machine[I any] struct {
	states      map[string]Factory[I]
	current     State[I]
	currentName string
}

func New[I any]() *Machine[I] {
	return &Machine[I]{
		states: make(map[string]Factory[I], 8),
	}
}

// RegisterState associates name with a factory. Registering a name again
// replaces the previous factory.
func (m *Machine[I]) RegisterState(name string, f Factory[I]) {
	m.states[name] = f
}

// Has reports whether name is registered.
func (m *Machine[I]) Has(name string) bool {
	_, ok := m.states[name]
	return ok
}

// SetState transitions to name. It is a no-op when name is already active.
// Otherwise the old state exits before the new one is built and entered.
func (m *Machine[I]) SetState(name string) error {
	prev := m.current
	if prev != nil && m.currentName == name {
		return nil
	}
	f, ok := m.states[name]
	if !ok || f == nil {
		return fmt.Errorf("%w: %q", ErrUnknownState, name)
	}

	if prev != nil {
		prev.Exit()
	}
	next := f(m)
	if next == nil {
		m.current, m.currentName = nil, ""
		return fmt.Errorf("%w: %q", ErrNilState, name)
	}
	m.current = next
	m.currentName = name
	next.Enter(prev)
	return nil
}

// Update forwards to the current state, if any.
func (m *Machine[I]) Update(dt time.Duration, input I) {
	if m.current != nil {
		m.current.Update(dt, input)
	}
}

// Current returns the active state, or nil before the first SetState.
func (m *Machine[I]) Current() State[I] { return m.current }

// CurrentName returns the registered name of the active state, or "".
func (m *Machine[I]) CurrentName() string { return m.currentName }
