package classify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/standin-bot/standin/pkg/convo"
	"github.com/standin-bot/standin/pkg/genai"
	"github.com/standin-bot/standin/pkg/logging"
)

// Classifier labels a conversation FRIEND or CUSTOMER and detects the
// message language. The label judgment is delegated to the language
// model backend; when that is unavailable or times out a deterministic
// heuristic takes over. Classification is advisory: it degrades, logs,
// and never fails the turn.
type Classifier struct {
	backend  genai.Backend
	contacts map[string]bool
	timeout  time.Duration
	logger   *slog.Logger
}

// Options configures the classifier.
type Options struct {
	// Backend used for the structured-label judgment; nil forces the
	// heuristic path.
	Backend genai.Backend
	// KnownContacts lists peer IDs treated as FRIEND by the fallback.
	KnownContacts []string
	Timeout       time.Duration
}

func New(opts Options) *Classifier {
	contacts := make(map[string]bool, len(opts.KnownContacts))
	for _, id := range opts.KnownContacts {
		contacts[id] = true
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Classifier{
		backend:  opts.Backend,
		contacts: contacts,
		timeout:  timeout,
		logger:   logging.NewComponentLogger(slog.Default(), "classifier"),
	}
}

// Classify produces a fresh classification for the current inbound turn.
// prev is the conversation's cached previous result (zero value for a
// new conversation).
func (c *Classifier) Classify(ctx context.Context, key convo.Key, text string, history []convo.Turn, prev convo.Classification) convo.Classification {
	result := convo.Classification{
		Language: DetectLanguage(text, prev.Language),
	}

	label, err := c.classifyLabel(ctx, text, history)
	if err != nil {
		result.Label = c.fallbackLabel(key, text)
		result.Degraded = true
		c.logger.Warn("classification_degraded",
			"peer", key.PeerID,
			"fallback", result.Label.String(),
			"error", err)
		return result
	}
	result.Label = label
	return result
}

type labelOutput struct {
	Label string `json:"label"`
}

const labelInstruction = `You label one incoming personal message. Reply ONLY with valid JSON:
{"label":"FRIEND|CUSTOMER|UNKNOWN"}
FRIEND: casual check-in from friends or family.
CUSTOMER: business inquiry, product or price question.
UNKNOWN: anything you cannot tell apart.`

func (c *Classifier) classifyLabel(ctx context.Context, text string, history []convo.Turn) (convo.ContextLabel, error) {
	if c.backend == nil {
		return convo.ContextUnknown, errors.New("no classification backend")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []genai.Message{{Role: genai.RoleSystem, Content: labelInstruction}}
	for _, turn := range tail(history, 4) {
		role := genai.RoleUser
		if turn.Role == convo.RoleOutbound {
			role = genai.RoleAssistant
		}
		messages = append(messages, genai.Message{Role: role, Content: turn.Text})
	}
	messages = append(messages, genai.Message{Role: genai.RoleUser, Content: text})

	resp, err := c.backend.Generate(ctx, genai.Request{Messages: messages, MaxTokens: 16})
	if err != nil {
		return convo.ContextUnknown, err
	}
	var out labelOutput
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text)), &out); err != nil {
		return convo.ContextUnknown, err
	}
	label := convo.ParseContextLabel(strings.TrimSpace(out.Label))
	return label, nil
}

// commerce keywords used by the heuristic fallback and by the post-
// generation signal in the coordinator.
var commerceKeywords = []string{
	"price", "buy", "order", "sell", "product", "cost", "purchase",
	"prix", "acheter", "commande", "produit",
	"شحال", "ثمن", "نشري", "سعر",
}

// fallbackLabel is the deterministic heuristic: known contacts are
// FRIEND, commerce wording is CUSTOMER, everything else UNKNOWN.
func (c *Classifier) fallbackLabel(key convo.Key, text string) convo.ContextLabel {
	if c.contacts[key.PeerID] {
		return convo.ContextFriend
	}
	lower := strings.ToLower(text)
	for _, kw := range commerceKeywords {
		if strings.Contains(lower, kw) {
			return convo.ContextCustomer
		}
	}
	return convo.ContextUnknown
}

// LooksCommercial reports whether text carries commerce wording. The
// coordinator uses it as an extra signal when classification degraded.
func LooksCommercial(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range commerceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func tail(turns []convo.Turn, n int) []convo.Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
