package coordinator

import (
	"errors"
	"sync"
	"testing"
)

type captureListener struct {
	mu     sync.Mutex
	events []StateChange
}

func (c *captureListener) OnStateChange(event StateChange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureListener) Events() []StateChange {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StateChange, len(c.events))
	copy(out, c.events)
	return out
}

func TestStateMachineFullCycle(t *testing.T) {
	listener := &captureListener{}
	sm := newStateMachine("private:alice", []StateListener{listener})

	cycle := []State{StateClassifying, StateMatching, StateGenerating, StateDelivering, StateIdle}
	for _, next := range cycle {
		if err := sm.Transition(next, "test"); err != nil {
			t.Fatalf("transition to %s: %v", next.String(), err)
		}
	}
	if sm.State() != StateIdle {
		t.Fatalf("expected IDLE after full cycle, got %s", sm.State().String())
	}

	events := listener.Events()
	if len(events) != len(cycle) {
		t.Fatalf("expected %d state changes, got %d", len(cycle), len(events))
	}
	if events[0].Conversation != "private:alice" {
		t.Fatalf("unexpected conversation in event: %q", events[0].Conversation)
	}
}

func TestStateMachineAbortToIdle(t *testing.T) {
	for _, from := range []State{StateClassifying, StateMatching, StateGenerating, StateDelivering} {
		sm := newStateMachine("k", nil)
		sm.currentState = from
		if err := sm.Transition(StateIdle, "abort"); err != nil {
			t.Fatalf("abort from %s: %v", from.String(), err)
		}
	}
}

func TestStateMachineInvalidTransition(t *testing.T) {
	sm := newStateMachine("k", nil)

	err := sm.Transition(StateGenerating, "skip ahead")
	if err == nil {
		t.Fatalf("expected error for IDLE -> GENERATING")
	}
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %T", err)
	}
	if invalid.From != StateIdle || invalid.To != StateGenerating {
		t.Fatalf("unexpected error fields: %+v", invalid)
	}
	if sm.State() != StateIdle {
		t.Fatalf("state changed on invalid transition: %s", sm.State().String())
	}
}
