package state

import (
	"errors"
	"fmt"
	"sync"
)

// Status is the lifecycle phase of a game.
type Status string

const (
	Waiting  Status = "waiting"
	Playing  Status = "playing"
	Finished Status = "finished"
)

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Machine holds the allowed transitions between statuses. The status itself
// lives in the persisted game record; Machine only decides whether a move
// from one status to another is legal.
type Machine struct {
	transitions map[Status]map[Status]func() bool // from -> to -> condition
	mutex       sync.RWMutex
}

func NewMachine() *Machine {
	return &Machine{
		transitions: make(map[Status]map[Status]func() bool),
	}
}

// NewLifecycle returns the game lifecycle: waiting -> playing -> finished.
func NewLifecycle() *Machine {
	m := NewMachine()
	m.AddTransition(Waiting, Playing, nil)
	m.AddTransition(Playing, Finished, nil)
	return m
}

// AddTransition allows from -> to. A nil condition always passes.
func (m *Machine) AddTransition(from, to Status, condition func() bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.transitions[from]; !exists {
		m.transitions[from] = make(map[Status]func() bool)
	}
	m.transitions[from][to] = condition
}

// Transition validates from -> to and returns the new status.
func (m *Machine) Transition(from, to Status) (Status, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	conditions, exists := m.transitions[from]
	if !exists {
		return from, fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
	}
	condition, exists := conditions[to]
	if !exists || (condition != nil && !condition()) {
		return from, fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
	}
	return to, nil
}

// Terminal reports whether no transition leaves s.
func (m *Machine) Terminal(s Status) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.transitions[s]) == 0
}
