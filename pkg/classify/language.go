package classify

import (
	"strings"
	"unicode"
)

// Language tags recognized by the detector.
const (
	LangEnglish = "en"
	LangFrench  = "fr"
	LangArabic  = "ar"
	LangDarija  = "ary"
)

// minClassifyTokens is the threshold below which a message is considered
// too short to re-detect; the previous turn's language carries over so
// short acknowledgements ("ok", "lol") do not thrash the tag.
const minClassifyTokens = 2

// Darija lexical markers in Arabic script. Script alone cannot separate
// Darija from standard Arabic, so detection relies on these.
var darijaArabicMarkers = []string{
	"واش", "بزاف", "دابا", "شحال", "ديال", "غادي", "خويا", "مزيان",
	"عافاك", "بغيت", "فين", "كيفاش", "راني", "حيت", "شنو", "دروك",
}

// Darija romanizations (Arabizi) in Latin script. The digit-as-letter
// convention (3='ع', 7='ح', 9='ق') is the strongest signal.
var darijaLatinMarkers = []string{
	"wach", "bzaf", "bezaf", "daba", "chhal", "dyal", "ghadi", "khoya",
	"mzyan", "3afak", "bghit", "fin", "kifach", "rani", "7it", "chno",
	"labas", "salam", "wesh", "sahbi", "hamdoulah",
}

var frenchMarkers = []string{
	"bonjour", "salut", "merci", "je", "tu", "vous", "est", "pas",
	"oui", "non", "combien", "acheter", "prix", "produit", "svp",
	"pourquoi", "comment", "avec", "pour", "une", "des", "les",
}

// DetectLanguage returns a deterministic language tag for text. When the
// text is below the token threshold the previous tag carries over
// regardless of script; with no previous tag the text is detected as is.
func DetectLanguage(text, previous string) string {
	if TooShort(text) && previous != "" {
		return previous
	}

	tokens := latinTokens(text)
	arabic := arabicRatio(text)

	if arabic > 0.3 {
		if containsAny(text, darijaArabicMarkers) {
			return LangDarija
		}
		return LangArabic
	}

	if countMarkers(tokens, darijaLatinMarkers) > 0 || hasArabiziDigits(tokens) {
		return LangDarija
	}
	if countMarkers(tokens, frenchMarkers) >= 1 {
		return LangFrench
	}
	return LangEnglish
}

// TooShort reports whether text is below the re-detection threshold.
func TooShort(text string) bool {
	return len(strings.Fields(text)) < minClassifyTokens
}

func arabicRatio(text string) float64 {
	letters, arabic := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.Is(unicode.Arabic, r) {
				arabic++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(arabic) / float64(letters)
}

func latinTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func countMarkers(tokens []string, markers []string) int {
	set := make(map[string]bool, len(markers))
	for _, m := range markers {
		set[m] = true
	}
	n := 0
	for _, tok := range tokens {
		if set[tok] {
			n++
		}
	}
	return n
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// hasArabiziDigits reports whether any token mixes letters with the
// digits used as Arabic consonants in romanized Darija.
func hasArabiziDigits(tokens []string) bool {
	for _, tok := range tokens {
		var hasLetter, hasMarkerDigit bool
		for _, r := range tok {
			switch {
			case unicode.IsLetter(r):
				hasLetter = true
			case r == '3' || r == '7' || r == '9':
				hasMarkerDigit = true
			}
		}
		if hasLetter && hasMarkerDigit {
			return true
		}
	}
	return false
}
