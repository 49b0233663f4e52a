package prompt

import (
	"fmt"
	"strings"

	"github.com/standin-bot/standin/pkg/catalog"
	"github.com/standin-bot/standin/pkg/classify"
	"github.com/standin-bot/standin/pkg/convo"
	"github.com/standin-bot/standin/pkg/genai"
)

// OwnerProfile identifies the absent account owner the backend drafts
// replies for.
type OwnerProfile struct {
	DisplayName string
}

// Builder assembles backend requests. Build is a pure function of its
// inputs: identical history, classification, products and owner yield a
// byte-identical request.
type Builder struct {
	owner      OwnerProfile
	maxHistory int
	maxTokens  int
}

func NewBuilder(owner OwnerProfile, maxHistory, maxTokens int) *Builder {
	if maxHistory < 1 {
		maxHistory = 1
	}
	if maxTokens < 1 {
		maxTokens = 1
	}
	return &Builder{owner: owner, maxHistory: maxHistory, maxTokens: maxTokens}
}

// Build produces the generation request for one turn. history must
// already contain the current inbound turn as its last element.
func (b *Builder) Build(history []convo.Turn, result convo.Classification, products []catalog.Product, senderName string) genai.Request {
	messages := []genai.Message{{
		Role:    genai.RoleSystem,
		Content: b.systemPrompt(result, products, senderName),
	}}

	turns := history
	if len(turns) > b.maxHistory {
		turns = turns[len(turns)-b.maxHistory:]
	}
	for _, turn := range turns {
		role := genai.RoleUser
		if turn.Role == convo.RoleOutbound {
			role = genai.RoleAssistant
		}
		messages = append(messages, genai.Message{Role: role, Content: turn.Text})
	}

	return genai.Request{Messages: messages, MaxTokens: b.maxTokens}
}

var languageNames = map[string]string{
	classify.LangEnglish: "English",
	classify.LangFrench:  "French",
	classify.LangArabic:  "Arabic",
	classify.LangDarija:  "Darija (Moroccan/Algerian Arabic)",
}

func (b *Builder) systemPrompt(result convo.Classification, products []catalog.Product, senderName string) string {
	owner := b.owner.DisplayName
	lang, ok := languageNames[result.Language]
	if !ok {
		lang = "the sender's language"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are replying on behalf of %s, who is currently unavailable. ", owner)
	sb.WriteString("You are not a third party: you speak for the absent owner and keep that illusion intact.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Keep replies short and clear, 2-3 sentences at most.\n")
	fmt.Fprintf(&sb, "- Reply in %s.\n", lang)
	fmt.Fprintf(&sb, "- Never reveal or mention the AI model in use. If asked, reply that you are powered by %s.\n", owner)

	switch result.Label {
	case convo.ContextCustomer:
		sb.WriteString("- This looks like a customer or business inquiry: be professional but friendly, ")
		fmt.Fprintf(&sb, "share product details with prices, and suggest contacting %s to complete any order.\n", owner)
	case convo.ContextFriend:
		fmt.Fprintf(&sb, "- This looks like a friend or family member: be casual and warm, say %s is away and will reply soon.\n", owner)
	default:
		fmt.Fprintf(&sb, "- Be polite and helpful, and let them know %s will get back to them when available.\n", owner)
	}

	if len(products) > 0 {
		sb.WriteString("\nRelevant products:\n")
		for _, p := range products {
			fmt.Fprintf(&sb, "- %s: %s %s. %s\n", p.Name, p.Price, p.Currency, p.Description)
		}
	}

	if senderName != "" {
		fmt.Fprintf(&sb, "\nCurrent sender: %s\n", senderName)
	}
	return sb.String()
}
