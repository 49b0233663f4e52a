package mock

import (
	"context"
	"sync"

	"github.com/standin-bot/standin/pkg/transports"
)

// Transport is an in-memory transport for tests: inbound events are
// injected by the test, outbound events are captured.
type Transport struct {
	in      chan transports.InboundEvent
	mu      sync.Mutex
	sent    []transports.OutboundEvent
	sendErr error
	started bool
}

func NewTransport() *Transport {
	return &Transport{in: make(chan transports.InboundEvent, 64)}
}

func (t *Transport) Name() string { return "mock_transport" }

func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	t.started = true
	t.mu.Unlock()
	return nil
}

func (t *Transport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		close(t.in)
		t.started = false
	}
	return nil
}

func (t *Transport) Recv() <-chan transports.InboundEvent { return t.in }

func (t *Transport) Send(ctx context.Context, event transports.OutboundEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent = append(t.sent, event)
	return nil
}

// Inject delivers an inbound event to the engine.
func (t *Transport) Inject(event transports.InboundEvent) {
	t.in <- event
}

// FailSends makes every subsequent Send return err.
func (t *Transport) FailSends(err error) {
	t.mu.Lock()
	t.sendErr = err
	t.mu.Unlock()
}

// Sent returns a copy of the delivered outbound events.
func (t *Transport) Sent() []transports.OutboundEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]transports.OutboundEvent, len(t.sent))
	copy(out, t.sent)
	return out
}

var _ transports.Transport = (*Transport)(nil)
