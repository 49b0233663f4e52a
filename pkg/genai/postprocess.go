package genai

import (
	"errors"
	"strings"

	"github.com/standin-bot/standin/pkg/errorsx"
)

var roleMarkers = []string{"assistant:", "system:", "user:", "ai:", "bot:"}

// Postprocess cleans backend output: leaked role markers are stripped,
// the text is capped to maxTokens whitespace tokens, and empty output
// becomes a malformed-response failure so no blank reply is ever sent.
func Postprocess(text string, maxTokens int) (string, error) {
	out := strings.TrimSpace(text)
	lower := strings.ToLower(out)
	for _, marker := range roleMarkers {
		if strings.HasPrefix(lower, marker) {
			out = strings.TrimSpace(out[len(marker):])
			lower = strings.ToLower(out)
		}
	}

	if maxTokens > 0 {
		fields := strings.Fields(out)
		if len(fields) > maxTokens {
			out = strings.Join(fields[:maxTokens], " ")
		}
	}

	if strings.TrimSpace(out) == "" {
		return "", errorsx.Wrap(errors.New("empty backend output"), errorsx.ReasonBackendMalformed)
	}
	return out, nil
}

// TokenCount approximates the token count of text the same way the
// post-processing cap does.
func TokenCount(text string) int {
	return len(strings.Fields(text))
}
