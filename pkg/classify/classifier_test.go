package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/standin-bot/standin/pkg/convo"
	"github.com/standin-bot/standin/pkg/providers/mock"
)

func key() convo.Key {
	return convo.Key{PeerID: "peer-1", Kind: convo.ChatPrivate}
}

func TestClassifyUsesBackendLabel(t *testing.T) {
	backend := mock.NewBackend(mock.BackendConfig{Responses: []string{`{"label":"CUSTOMER"}`}})
	c := New(Options{Backend: backend})

	result := c.Classify(context.Background(), key(), "do you sell speakers?", nil, convo.Classification{})
	if result.Label != convo.ContextCustomer {
		t.Fatalf("expected CUSTOMER, got %s", result.Label)
	}
	if result.Degraded {
		t.Fatalf("backend path must not be degraded")
	}
}

func TestClassifyHandlesFencedJSON(t *testing.T) {
	backend := mock.NewBackend(mock.BackendConfig{Responses: []string{"```json\n{\"label\":\"FRIEND\"}\n```"}})
	c := New(Options{Backend: backend})

	result := c.Classify(context.Background(), key(), "hey, long time!", nil, convo.Classification{})
	if result.Label != convo.ContextFriend {
		t.Fatalf("expected FRIEND, got %s", result.Label)
	}
}

func TestClassifyDegradesToContactHeuristic(t *testing.T) {
	backend := mock.NewBackend(mock.BackendConfig{Err: errors.New("backend down")})
	c := New(Options{Backend: backend, KnownContacts: []string{"peer-1"}})

	result := c.Classify(context.Background(), key(), "yo", nil, convo.Classification{})
	if !result.Degraded {
		t.Fatalf("expected degraded result")
	}
	if result.Label != convo.ContextFriend {
		t.Fatalf("known contact should fall back to FRIEND, got %s", result.Label)
	}
}

func TestClassifyDegradesToCommerceHeuristic(t *testing.T) {
	c := New(Options{}) // no backend at all
	result := c.Classify(context.Background(), key(), "what is the price of the laptop?", nil, convo.Classification{})
	if result.Label != convo.ContextCustomer {
		t.Fatalf("commerce wording should fall back to CUSTOMER, got %s", result.Label)
	}
	if !result.Degraded {
		t.Fatalf("heuristic path must be marked degraded")
	}
}

func TestClassifyUnparsableLabelFallsBack(t *testing.T) {
	backend := mock.NewBackend(mock.BackendConfig{Responses: []string{"certainly! the label is friend"}})
	c := New(Options{Backend: backend})

	result := c.Classify(context.Background(), key(), "hello there my old friend", nil, convo.Classification{})
	if !result.Degraded {
		t.Fatalf("unparsable output should degrade")
	}
	if result.Label != convo.ContextUnknown {
		t.Fatalf("expected UNKNOWN fallback, got %s", result.Label)
	}
}

func TestClassifyCarriesPreviousLanguageOnShortText(t *testing.T) {
	backend := mock.NewBackend(mock.BackendConfig{Responses: []string{`{"label":"UNKNOWN"}`}})
	c := New(Options{Backend: backend})

	prev := convo.Classification{Label: convo.ContextFriend, Language: LangFrench}
	result := c.Classify(context.Background(), key(), "ok", nil, prev)
	if result.Language != LangFrench {
		t.Fatalf("expected carried-over fr, got %s", result.Language)
	}
}
