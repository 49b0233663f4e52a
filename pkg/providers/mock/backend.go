package mock

import (
	"context"
	"sync"

	"github.com/standin-bot/standin/pkg/genai"
)

// Backend is a deterministic language-model backend for tests.
type Backend struct {
	cfg      BackendConfig
	mu       sync.Mutex
	calls    int
	requests []genai.Request
}

// BackendConfig scripts the backend. Responses are returned in order,
// repeating the last one; Err (when set) fails every call.
type BackendConfig struct {
	Responses  []string
	Err        error
	TokensUsed int
}

func NewBackend(cfg BackendConfig) *Backend {
	if len(cfg.Responses) == 0 {
		cfg.Responses = []string{"mock response"}
	}
	return &Backend{cfg: cfg}
}

func (b *Backend) Name() string { return "mock_backend" }

func (b *Backend) Generate(ctx context.Context, req genai.Request) (genai.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
	idx := b.calls
	b.calls++
	if b.cfg.Err != nil {
		return genai.Response{}, b.cfg.Err
	}
	if idx >= len(b.cfg.Responses) {
		idx = len(b.cfg.Responses) - 1
	}
	return genai.Response{Text: b.cfg.Responses[idx], TokensUsed: b.cfg.TokensUsed}, nil
}

// Calls returns how many times Generate ran.
func (b *Backend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// Requests returns a copy of every request seen.
func (b *Backend) Requests() []genai.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]genai.Request, len(b.requests))
	copy(out, b.requests)
	return out
}

var _ genai.Backend = (*Backend)(nil)
