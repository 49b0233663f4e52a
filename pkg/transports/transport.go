package transports

import (
	"context"
	"time"

	"github.com/standin-bot/standin/pkg/convo"
)

// InboundEvent is one incoming message delivered by a transport. Either
// Text or AudioRef is set; AudioRef points at audio the transcription
// collaborator can consume.
type InboundEvent struct {
	PeerID     string         `json:"peer_id"`
	Kind       convo.ChatKind `json:"kind"`
	Text       string         `json:"text,omitempty"`
	AudioRef   string         `json:"audio_ref,omitempty"`
	SenderName string         `json:"sender_name,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Key returns the conversation key for the event.
func (e InboundEvent) Key() convo.Key {
	return convo.Key{PeerID: e.PeerID, Kind: e.Kind}
}

// OutboundEvent is one reply handed back to a transport for delivery.
type OutboundEvent struct {
	PeerID string         `json:"peer_id"`
	Kind   convo.ChatKind `json:"kind"`
	Text   string         `json:"text"`
}

// Transport is the vendor-agnostic messaging boundary. Implementations
// own their network lifecycle; Send failures are non-fatal to the
// engine and reported as delivery failures.
type Transport interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Recv() <-chan InboundEvent
	Send(ctx context.Context, event OutboundEvent) error
}
