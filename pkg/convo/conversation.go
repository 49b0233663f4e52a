package convo

import "time"

// ContextLabel is the closed classification of a conversation's current
// intent.
type ContextLabel int

const (
	ContextUnknown ContextLabel = iota
	ContextFriend
	ContextCustomer
)

// String returns the string representation of a ContextLabel.
func (c ContextLabel) String() string {
	switch c {
	case ContextFriend:
		return "FRIEND"
	case ContextCustomer:
		return "CUSTOMER"
	default:
		return "UNKNOWN"
	}
}

// ParseContextLabel maps a free-form label back into the closed set.
// Anything unrecognized is UNKNOWN.
func ParseContextLabel(s string) ContextLabel {
	switch s {
	case "FRIEND", "friend":
		return ContextFriend
	case "CUSTOMER", "customer":
		return ContextCustomer
	default:
		return ContextUnknown
	}
}

// Classification is the per-turn output of the context classifier. Only
// the latest result is cached on a conversation; it is never persisted
// as ground truth.
type Classification struct {
	Label    ContextLabel
	Language string
	Degraded bool
}

// Conversation is the in-memory record for one peer+chat-kind pair.
// Created lazily on first observed message, never explicitly destroyed.
type Conversation struct {
	Key          Key
	DisplayName  string
	LastClassify Classification
	LastActivity time.Time
}
