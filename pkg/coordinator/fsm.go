package coordinator

import (
	"sync"
	"time"
)

// State is the processing state of a single conversation.
type State int

const (
	StateIdle State = iota
	StateClassifying
	StateMatching
	StateGenerating
	StateDelivering
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateClassifying:
		return "CLASSIFYING"
	case StateMatching:
		return "MATCHING"
	case StateGenerating:
		return "GENERATING"
	case StateDelivering:
		return "DELIVERING"
	default:
		return "UNKNOWN"
	}
}

// StateChange represents a state transition event.
type StateChange struct {
	Conversation string
	FromState    State
	ToState      State
	Timestamp    time.Time
	Reason       string
}

// StateListener observes conversation state changes.
type StateListener interface {
	OnStateChange(event StateChange)
}

// InvalidTransitionError represents an invalid state transition attempt.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return "invalid state transition from " + e.From.String() + " to " + e.To.String()
}

// stateMachine implements the finite state machine for one conversation.
type stateMachine struct {
	conversation string
	currentState State
	mu           sync.RWMutex

	stateChangeListeners []StateListener
}

func newStateMachine(conversation string, listeners []StateListener) *stateMachine {
	return &stateMachine{
		conversation:         conversation,
		currentState:         StateIdle,
		stateChangeListeners: listeners,
	}
}

// State returns the current state.
func (sm *stateMachine) State() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// transitionValid checks if a state transition is valid (must be called with lock held).
func (sm *stateMachine) transitionValid(from, to State) bool {
	// Every non-idle state may abort back to IDLE; forward progress is linear.
	validTransitions := map[State][]State{
		StateIdle:        {StateClassifying},
		StateClassifying: {StateMatching, StateIdle},
		StateMatching:    {StateGenerating, StateIdle},
		StateGenerating:  {StateDelivering, StateIdle},
		StateDelivering:  {StateIdle},
	}

	allowedStates, exists := validTransitions[from]
	if !exists {
		return false
	}

	for _, allowed := range allowedStates {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves to a new state with validation.
func (sm *stateMachine) Transition(state State, reason string) error {
	sm.mu.Lock()

	if !sm.transitionValid(sm.currentState, state) {
		err := &InvalidTransitionError{From: sm.currentState, To: state}
		sm.mu.Unlock()
		return err
	}

	oldState := sm.currentState
	sm.currentState = state

	event := StateChange{
		Conversation: sm.conversation,
		FromState:    oldState,
		ToState:      state,
		Timestamp:    time.Now(),
		Reason:       reason,
	}

	// Notify listeners outside the lock to avoid deadlocks.
	listeners := make([]StateListener, len(sm.stateChangeListeners))
	copy(listeners, sm.stateChangeListeners)
	sm.mu.Unlock()

	for _, listener := range listeners {
		listener.OnStateChange(event)
	}
	return nil
}
