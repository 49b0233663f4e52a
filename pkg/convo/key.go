package convo

import "fmt"

// ChatKind distinguishes private chats from group chats.
type ChatKind int

const (
	ChatPrivate ChatKind = iota
	ChatGroup
)

// String returns the string representation of a ChatKind.
func (k ChatKind) String() string {
	switch k {
	case ChatPrivate:
		return "private"
	case ChatGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Key is the stable identifier for a peer+chat-kind pair. It is the unit
// of history lookup and of per-conversation serialization.
type Key struct {
	PeerID string
	Kind   ChatKind
}

// String renders the key in a form usable as a store key.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Kind, k.PeerID)
}
