package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/standin-bot/standin/pkg/errorsx"
)

type fakeBackend struct {
	errs  []error
	resp  Response
	calls int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Generate(ctx context.Context, req Request) (Response, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return Response{}, f.errs[i]
	}
	return f.resp, nil
}

func testRequest() Request {
	return Request{
		Messages:  []Message{{Role: RoleUser, Content: "hello"}},
		MaxTokens: 150,
	}
}

func TestGenerateRetriesTransientFailure(t *testing.T) {
	backend := &fakeBackend{
		errs: []error{errorsx.Wrap(errors.New("connection refused"), errorsx.ReasonBackendUnavailable)},
		resp: Response{Text: "all good", TokensUsed: 10},
	}
	g := NewGenerator(backend, GeneratorOptions{Timeout: time.Second, MaxRetries: 2, RetryBackoff: time.Millisecond})

	resp, err := g.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Text != "all good" {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if backend.calls != 2 {
		t.Fatalf("expected one retry, got %d calls", backend.calls)
	}
	if resp.Latency <= 0 {
		t.Fatalf("latency not recorded")
	}
}

func TestGenerateDoesNotRetryRateLimit(t *testing.T) {
	rateLimited := errorsx.Wrap(errors.New("429"), errorsx.ReasonBackendRateLimit)
	backend := &fakeBackend{errs: []error{rateLimited, rateLimited, rateLimited}}
	g := NewGenerator(backend, GeneratorOptions{Timeout: time.Second, MaxRetries: 3, RetryBackoff: time.Millisecond})

	_, err := g.Generate(context.Background(), testRequest())
	if !errorsx.HasReason(err, errorsx.ReasonBackendRateLimit) {
		t.Fatalf("expected rate limit reason, got %v", err)
	}
	if backend.calls != 1 {
		t.Fatalf("rate limit must not be retried, got %d calls", backend.calls)
	}
}

func TestGenerateCircuitOpensAfterRateLimits(t *testing.T) {
	rateLimited := errorsx.Wrap(errors.New("429"), errorsx.ReasonBackendRateLimit)
	backend := &fakeBackend{errs: []error{rateLimited, rateLimited, rateLimited, rateLimited}}
	g := NewGenerator(backend, GeneratorOptions{Timeout: time.Second, MaxRetries: 1, RetryBackoff: time.Millisecond})

	for i := 0; i < 3; i++ {
		if _, err := g.Generate(context.Background(), testRequest()); err == nil {
			t.Fatalf("expected failure on call %d", i)
		}
	}
	calls := backend.calls
	_, err := g.Generate(context.Background(), testRequest())
	if !errorsx.HasReason(err, errorsx.ReasonBackendRateLimit) {
		t.Fatalf("expected rate limit reason from open circuit, got %v", err)
	}
	if backend.calls != calls {
		t.Fatalf("open circuit must not reach the backend")
	}
}

func TestGenerateRejectsEmptyOutput(t *testing.T) {
	backend := &fakeBackend{resp: Response{Text: "   "}}
	g := NewGenerator(backend, GeneratorOptions{Timeout: time.Second})

	_, err := g.Generate(context.Background(), testRequest())
	if !errorsx.HasReason(err, errorsx.ReasonBackendMalformed) {
		t.Fatalf("expected malformed reason, got %v", err)
	}
}

func TestGenerateStripsRoleMarkers(t *testing.T) {
	backend := &fakeBackend{resp: Response{Text: "Assistant: sure, it is 1200 USD."}}
	g := NewGenerator(backend, GeneratorOptions{Timeout: time.Second})

	resp, err := g.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Text != "sure, it is 1200 USD." {
		t.Fatalf("marker not stripped: %q", resp.Text)
	}
}

func TestGenerateUnwrappedErrorGetsReason(t *testing.T) {
	backend := &fakeBackend{errs: []error{errors.New("boom"), errors.New("boom"), errors.New("boom")}}
	g := NewGenerator(backend, GeneratorOptions{Timeout: time.Second, MaxRetries: 2, RetryBackoff: time.Millisecond})

	_, err := g.Generate(context.Background(), testRequest())
	if !errorsx.HasReason(err, errorsx.ReasonBackendUnavailable) {
		t.Fatalf("expected unavailable reason for bare error, got %v", err)
	}
}
