package standin

import (
	"strings"
	"testing"
)

func TestDefaultRegistryBuildsMocks(t *testing.T) {
	r := DefaultRegistry()

	backend, err := r.BuildBackend(VendorConfig{Provider: "mock", Settings: map[string]any{
		"responses": []any{"hello"},
	}})
	if err != nil {
		t.Fatalf("build mock backend: %v", err)
	}
	if backend.Name() != "mock_backend" {
		t.Fatalf("unexpected backend: %s", backend.Name())
	}

	transcriber, err := r.BuildTranscriber(VendorConfig{Provider: "Mock", Settings: map[string]any{
		"text": "hi there",
	}})
	if err != nil {
		t.Fatalf("build mock transcriber: %v", err)
	}
	if transcriber.Name() != "mock_transcriber" {
		t.Fatalf("unexpected transcriber: %s", transcriber.Name())
	}

	transport, err := r.BuildTransport(TransportsConfig{Provider: "mock"})
	if err != nil {
		t.Fatalf("build mock transport: %v", err)
	}
	if transport.Name() != "mock_transport" {
		t.Fatalf("unexpected transport: %s", transport.Name())
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := DefaultRegistry()
	if _, err := r.BuildBackend(VendorConfig{Provider: "claude"}); err == nil {
		t.Fatalf("expected unknown provider error")
	}
	if _, err := r.BuildTransport(TransportsConfig{Provider: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected unknown transport error")
	}
}

func TestTwilioSettingsValidated(t *testing.T) {
	r := DefaultRegistry()
	_, err := r.BuildTransport(TransportsConfig{Provider: "twilio", Settings: map[string]any{
		"auth_token": "tok",
	}})
	if err == nil || !strings.Contains(err.Error(), "account_sid") {
		t.Fatalf("expected missing account_sid error, got %v", err)
	}
}

func TestOpenAISettingsValidated(t *testing.T) {
	r := DefaultRegistry()
	_, err := r.BuildBackend(VendorConfig{Provider: "openai", Settings: map[string]any{
		"model":   "gpt-4o",
		"api_kye": "oops",
	}})
	if err == nil {
		t.Fatalf("expected schema error for misspelled key")
	}
}
