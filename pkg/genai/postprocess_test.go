package genai

import (
	"testing"

	"github.com/standin-bot/standin/pkg/errorsx"
)

func TestPostprocessStripsRoleMarkers(t *testing.T) {
	out, err := Postprocess("Assistant: sure, it costs 200 USD", 0)
	if err != nil {
		t.Fatalf("postprocess error: %v", err)
	}
	if out != "sure, it costs 200 USD" {
		t.Fatalf("marker not stripped: %q", out)
	}
}

func TestPostprocessCapsTokens(t *testing.T) {
	out, err := Postprocess("one two three four five", 3)
	if err != nil {
		t.Fatalf("postprocess error: %v", err)
	}
	if out != "one two three" {
		t.Fatalf("token cap not applied: %q", out)
	}
	if TokenCount(out) != 3 {
		t.Fatalf("unexpected token count %d", TokenCount(out))
	}
}

func TestPostprocessRejectsEmptyOutput(t *testing.T) {
	for _, in := range []string{"", "   ", "assistant:"} {
		_, err := Postprocess(in, 10)
		if !errorsx.HasReason(err, errorsx.ReasonBackendMalformed) {
			t.Fatalf("expected malformed reason for %q, got %v", in, err)
		}
	}
}
