package genai

import (
	"context"
	"time"
)

// Message is one chat message in a backend request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is the structured payload sent to the language-model backend.
type Request struct {
	Messages  []Message
	MaxTokens int
}

// Response is the ephemeral result of one generation. It is consumed by
// the turn that produced it and never persisted.
type Response struct {
	Text       string
	TokensUsed int
	Latency    time.Duration
}

// Backend is the language-model boundary. Implementations map transport
// and provider failures onto the errorsx backend reasons.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
}
