package session

import "testing"

func TestMachineStartsConnecting(t *testing.T) {
	m := newMachine()
	if m.State() != StateConnecting {
		t.Fatalf("initial state = %v, want StateConnecting", m.State())
	}
}

func TestMachineFollowsHostingPath(t *testing.T) {
	m := newMachine()
	steps := []State{StateVersionHandshake, StateHosting, StateInRoom, StateClosed}
	for _, s := range steps {
		if err := m.TransitionTo(s); err != nil {
			t.Fatalf("TransitionTo(%v): %v", s, err)
		}
	}
}

func TestMachineFollowsJoiningPath(t *testing.T) {
	m := newMachine()
	steps := []State{StateVersionHandshake, StateJoining, StateInRoom, StateClosed}
	for _, s := range steps {
		if err := m.TransitionTo(s); err != nil {
			t.Fatalf("TransitionTo(%v): %v", s, err)
		}
	}
}

func TestMachineRejectsSkippingStates(t *testing.T) {
	m := newMachine()
	if err := m.TransitionTo(StateInRoom); err != ErrInvalidStateTransition {
		t.Fatalf("TransitionTo(StateInRoom) from Connecting = %v, want ErrInvalidStateTransition", err)
	}
}

func TestMachineRejectsTransitionsFromClosed(t *testing.T) {
	m := newMachine()
	_ = m.TransitionTo(StateClosed)
	if err := m.TransitionTo(StateConnecting); err != ErrInvalidStateTransition {
		t.Fatalf("TransitionTo from Closed = %v, want ErrInvalidStateTransition", err)
	}
}
