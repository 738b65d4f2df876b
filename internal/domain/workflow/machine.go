package workflow

import (
	"fmt"
	"sort"
)

// Machine validates triggers against an enumerated transition table. A
// Machine is built once and shared; Next never mutates it, so concurrent
// use is safe.
type Machine struct {
	transitions map[State]map[Trigger]State
}

// Builder accumulates a transition table for a Machine.
type Builder struct {
	transitions map[State]map[Trigger]State
}

// NewBuilder creates a new transition table builder
func NewBuilder() *Builder {
	return &Builder{transitions: make(map[State]map[Trigger]State)}
}

// Permit allows trigger to move from to the target state. It panics on
// unknown states, since the table is assembled from package constants at
// startup.
func (b *Builder) Permit(from State, trigger Trigger, to State) *Builder {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid source state: %s", from))
	}
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	row, ok := b.transitions[from]
	if !ok {
		row = make(map[Trigger]State)
		b.transitions[from] = row
	}
	row[trigger] = to
	return b
}

// Build copies the accumulated table into an immutable Machine
func (b *Builder) Build() *Machine {
	transitions := make(map[State]map[Trigger]State, len(b.transitions))
	for from, row := range b.transitions {
		rowCopy := make(map[Trigger]State, len(row))
		for trigger, to := range row {
			rowCopy[trigger] = to
		}
		transitions[from] = rowCopy
	}
	return &Machine{transitions: transitions}
}

// CanFire returns true if the trigger is permitted from the given state
func (m *Machine) CanFire(from State, trigger Trigger) bool {
	_, ok := m.transitions[from][trigger]
	return ok
}

// Next returns the state reached by firing trigger from the given state,
// or ErrInvalidTransition if the transition table does not permit it.
func (m *Machine) Next(from State, trigger Trigger) (State, error) {
	if !from.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidState, from)
	}
	to, ok := m.transitions[from][trigger]
	if !ok {
		return "", fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, from)
	}
	return to, nil
}

// PermittedTriggers returns the triggers that can fire from the given
// state, sorted for stable API responses.
func (m *Machine) PermittedTriggers(from State) []Trigger {
	row := m.transitions[from]
	triggers := make([]Trigger, 0, len(row))
	for trigger := range row {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
