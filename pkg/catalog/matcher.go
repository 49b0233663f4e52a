package catalog

import (
	"sort"
	"strings"
	"unicode"

	"github.com/standin-bot/standin/pkg/convo"
)

// Matcher ranks catalog entries against an inbound message. Matching
// only happens for CUSTOMER conversations; anything else short-circuits
// to an empty result.
type Matcher struct {
	catalog    *Catalog
	maxResults int
}

// NewMatcher creates a matcher over the given catalog. maxResults <= 0
// means no cap.
func NewMatcher(catalog *Catalog, maxResults int) *Matcher {
	return &Matcher{catalog: catalog, maxResults: maxResults}
}

// Match returns available products ranked by keyword overlap with the
// message, ties broken by catalog insertion order. Unavailable products
// are excluded unconditionally.
func (m *Matcher) Match(text string, result convo.Classification) []Product {
	if result.Label != convo.ContextCustomer {
		return nil
	}
	query := tokenize(text)
	if len(query) == 0 {
		return nil
	}

	type scored struct {
		product Product
		score   int
		order   int
	}
	var matches []scored
	for i, p := range m.catalog.Products() {
		if !p.Available {
			continue
		}
		score := overlap(query, tokenize(p.Name))*3 +
			overlap(query, tokenize(p.Category))*2 +
			overlap(query, tokenize(p.Description))
		if score > 0 {
			matches = append(matches, scored{product: p, score: score, order: i})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].score != matches[b].score {
			return matches[a].score > matches[b].score
		}
		return matches[a].order < matches[b].order
	})

	out := make([]Product, 0, len(matches))
	for _, s := range matches {
		out = append(out, s.product)
		if m.maxResults > 0 && len(out) >= m.maxResults {
			break
		}
	}
	return out
}

func overlap(query map[string]bool, doc map[string]bool) int {
	n := 0
	for tok := range query {
		if doc[tok] {
			n++
		}
	}
	return n
}

// tokenize lowercases and splits on anything that is not a letter or
// digit. Tokens of a single rune are kept; product names like "Model X"
// depend on them.
func tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[tok] = true
	}
	return out
}
