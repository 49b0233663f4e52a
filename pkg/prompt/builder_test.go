package prompt

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/standin-bot/standin/pkg/catalog"
	"github.com/standin-bot/standin/pkg/classify"
	"github.com/standin-bot/standin/pkg/convo"
	"github.com/standin-bot/standin/pkg/genai"
)

func sampleHistory(n int) []convo.Turn {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	turns := make([]convo.Turn, 0, n)
	for i := 0; i < n; i++ {
		role := convo.RoleInbound
		if i%2 == 1 {
			role = convo.RoleOutbound
		}
		turns = append(turns, convo.Turn{ID: "t", Role: role, Text: "msg", Timestamp: base})
	}
	return turns
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder(OwnerProfile{DisplayName: "Sam"}, 8, 150)
	history := sampleHistory(4)
	cls := convo.Classification{Label: convo.ContextCustomer, Language: classify.LangFrench}
	products := []catalog.Product{{ID: 1, Name: "Model X Speaker", Price: "120", Currency: "USD", Description: "Portable speaker", Available: true}}

	first := b.Build(history, cls, products, "Alice")
	second := b.Build(history, cls, products, "Alice")

	a, _ := json.Marshal(first)
	bts, _ := json.Marshal(second)
	if string(a) != string(bts) {
		t.Fatalf("identical inputs must yield byte-identical payloads")
	}
}

func TestBuildCapsHistory(t *testing.T) {
	b := NewBuilder(OwnerProfile{DisplayName: "Sam"}, 3, 150)
	req := b.Build(sampleHistory(10), convo.Classification{}, nil, "")
	// system message plus at most maxHistory turns
	if len(req.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != genai.RoleSystem {
		t.Fatalf("first message must be the system prompt")
	}
}

func TestBuildIncludesProductsAndLanguage(t *testing.T) {
	b := NewBuilder(OwnerProfile{DisplayName: "Sam"}, 8, 150)
	cls := convo.Classification{Label: convo.ContextCustomer, Language: classify.LangArabic}
	products := []catalog.Product{{Name: "Model X Speaker", Price: "120", Currency: "USD", Description: "Portable speaker"}}

	req := b.Build(sampleHistory(2), cls, products, "Alice")
	sys := req.Messages[0].Content
	for _, want := range []string{"Model X Speaker", "120 USD", "Portable speaker", "Arabic", "Sam", "Alice"} {
		if !strings.Contains(sys, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, sys)
		}
	}
	if strings.Contains(sys, "Timestamp") {
		t.Fatalf("system prompt must not embed timestamps")
	}
}

func TestBuildRoleFraming(t *testing.T) {
	b := NewBuilder(OwnerProfile{DisplayName: "Sam"}, 8, 150)
	history := []convo.Turn{
		{Role: convo.RoleInbound, Text: "hi"},
		{Role: convo.RoleOutbound, Text: "hello"},
		{Role: convo.RoleInbound, Text: "price?"},
	}
	req := b.Build(history, convo.Classification{}, nil, "")
	roles := []string{req.Messages[1].Role, req.Messages[2].Role, req.Messages[3].Role}
	want := []string{genai.RoleUser, genai.RoleAssistant, genai.RoleUser}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("role mismatch at %d: got %v want %v", i, roles, want)
		}
	}
	if req.MaxTokens != 150 {
		t.Fatalf("expected max tokens 150, got %d", req.MaxTokens)
	}
}
