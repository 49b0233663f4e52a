package standin

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/standin-bot/standin/pkg/convo"
	"github.com/standin-bot/standin/pkg/metrics"
	"github.com/standin-bot/standin/pkg/transports"
	mocktransport "github.com/standin-bot/standin/pkg/transports/mock"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Environment:   "test",
		LogLevel:      "error",
		OwnerName:     "Sam",
		AutoRespond:   true,
		ResponseDelay: 0,
		History:       HistoryConfig{MaxLength: 8},
		Generation:    GenerationConfig{MaxTokens: 150, TimeoutMS: 2000, Retries: 1, RetryBackoffMS: 1},
		Catalog:       CatalogConfig{Path: filepath.Join(t.TempDir(), "products.json"), MaxResults: 3},
		Vendors: VendorsConfig{
			LLM: VendorConfig{Provider: "mock", Settings: map[string]any{
				"responses": []any{`{"label":"FRIEND"}`, "Hey! I'm away right now, back soon."},
			}},
		},
		Transports: TransportsConfig{Provider: "mock"},
	}
}

func TestEngineRespondsEndToEnd(t *testing.T) {
	transport := mocktransport.NewTransport()
	obs := metrics.NewMemoryObserver()
	engine, err := NewEngine(EngineOptions{
		Config:    testConfig(t),
		Transport: transport,
		Observer:  obs,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	transport.Inject(transports.InboundEvent{
		PeerID:     "alice",
		Kind:       convo.ChatPrivate,
		Text:       "hey, you around?",
		SenderName: "Alice",
	})

	deadline := time.After(3 * time.Second)
	for len(transport.Sent()) == 0 {
		select {
		case <-deadline:
			t.Fatalf("no reply delivered before deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}

	sent := transport.Sent()
	if sent[0].PeerID != "alice" || sent[0].Text == "" {
		t.Fatalf("unexpected delivery: %+v", sent[0])
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("engine run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("engine did not drain after cancel")
	}

	if len(obs.Named("turn_completed")) != 1 {
		t.Fatalf("expected one turn_completed event")
	}
}

func TestEngineStopsWhenTransportCloses(t *testing.T) {
	transport := mocktransport.NewTransport()
	engine, err := NewEngine(EngineOptions{
		Config:    testConfig(t),
		Transport: transport,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- engine.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	if err := transport.Stop(); err != nil {
		t.Fatalf("stop transport: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("engine run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("engine did not stop after transport close")
	}
}

func TestEngineRejectsUnknownVendor(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vendors.LLM.Provider = "nope"
	if _, err := NewEngine(EngineOptions{Config: cfg, Transport: mocktransport.NewTransport()}); err == nil {
		t.Fatalf("expected vendor error")
	}
}
