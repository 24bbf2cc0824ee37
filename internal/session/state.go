// Package session implements the peer-side view of a room: the
// connection state machine, the mate roster, tick-batched chunk
// synchronization, and the fading recoverable-error message feed.
package session

import (
	"errors"
	"sync"
	"time"
)

// State is a peer's position in the room lifecycle.
type State int

const (
	StateConnecting State = iota + 1
	StateVersionHandshake
	StateHosting
	StateJoining
	StateInRoom
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateVersionHandshake:
		return "VERSION_HANDSHAKE"
	case StateHosting:
		return "HOSTING"
	case StateJoining:
		return "JOINING"
	case StateInRoom:
		return "IN_ROOM"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ErrInvalidStateTransition is returned by TransitionTo when the
// requested transition isn't permitted from the current state.
var ErrInvalidStateTransition = errors.New("session: invalid state transition")

// validTransitions enumerates every state a session may move to from
// a given state. Grounded on daemon/manager/session.go's TransitionTo:
// the same map-of-allowed-successors shape, generalized from the
// teacher's five transfer states to the room lifecycle's six.
var validTransitions = map[State][]State{
	StateConnecting:       {StateVersionHandshake, StateClosed},
	StateVersionHandshake: {StateHosting, StateJoining, StateClosed},
	StateHosting:          {StateInRoom, StateClosed},
	StateJoining:          {StateInRoom, StateClosed},
	StateInRoom:           {StateClosed},
	StateClosed:           {},
}

// machine is the state-machine half of a Session, kept as its own type
// so Session can embed it alongside the room-scoped fields without a
// second layer of locking around the same mutex.
type machine struct {
	mu         sync.RWMutex
	state      State
	enteredAt  time.Time
}

func newMachine() *machine {
	return &machine{state: StateConnecting, enteredAt: time.Now()}
}

// State returns the current state.
func (m *machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// TransitionTo moves to newState if the transition is permitted from
// the current state.
func (m *machine) TransitionTo(newState State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, allowed := range validTransitions[m.state] {
		if allowed == newState {
			m.state = newState
			m.enteredAt = time.Now()
			return nil
		}
	}
	return ErrInvalidStateTransition
}

// TimeInState reports how long the session has been in its current
// state.
func (m *machine) TimeInState() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Since(m.enteredAt)
}
