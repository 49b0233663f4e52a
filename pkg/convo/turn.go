package convo

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the direction of a turn within a conversation.
type Role int

const (
	RoleInbound Role = iota
	RoleOutbound
)

// String returns the string representation of a Role.
func (r Role) String() string {
	switch r {
	case RoleInbound:
		return "INBOUND"
	case RoleOutbound:
		return "OUTBOUND"
	default:
		return "UNKNOWN"
	}
}

// Turn is one message unit within a conversation. Turns are immutable
// once appended to history.
type Turn struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
	Transcribed bool      `json:"transcribed,omitempty"`
}

// NewTurn creates a turn with a fresh ID.
func NewTurn(role Role, text string, ts time.Time) Turn {
	if ts.IsZero() {
		ts = time.Now()
	}
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: ts,
	}
}

// NewTranscribedTurn creates an inbound turn sourced from voice input.
func NewTranscribedTurn(text string, ts time.Time) Turn {
	t := NewTurn(RoleInbound, text, ts)
	t.Transcribed = true
	return t
}
