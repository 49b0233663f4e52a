package classify

import "testing"

func TestDetectLanguageBasicTags(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"hello, how much is the speaker?", LangEnglish},
		{"bonjour, combien pour le casque svp", LangFrench},
		{"السلام عليكم، هل المنتج متوفر", LangArabic},
		{"واش عندك شي حاجة بزاف مزيانة", LangDarija},
		{"salam khoya, chhal dyal had l7aja", LangDarija},
		{"bghit nchri wa7d speaker 3afak", LangDarija},
	}
	for _, tc := range cases {
		got := DetectLanguage(tc.text, "")
		if got != tc.want {
			t.Fatalf("DetectLanguage(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestDetectLanguageIsDeterministic(t *testing.T) {
	text := "واش غادي تجي دابا"
	first := DetectLanguage(text, "")
	for i := 0; i < 10; i++ {
		if DetectLanguage(text, "") != first {
			t.Fatalf("detection not deterministic")
		}
	}
}

func TestShortTextCarriesPreviousLanguage(t *testing.T) {
	if got := DetectLanguage("ok", LangFrench); got != LangFrench {
		t.Fatalf("expected carried-over fr, got %s", got)
	}
	if got := DetectLanguage("lol", LangArabic); got != LangArabic {
		t.Fatalf("expected carried-over ar, got %s", got)
	}
	// Carryover is script-independent: a lone Arabic word keeps the tag.
	if got := DetectLanguage("شكرا", LangDarija); got != LangDarija {
		t.Fatalf("expected carried-over ary, got %s", got)
	}
	// No previous tag to carry: detect as is.
	if got := DetectLanguage("ok", ""); got != LangEnglish {
		t.Fatalf("expected en, got %s", got)
	}
	if got := DetectLanguage("شكرا", ""); got != LangArabic {
		t.Fatalf("expected ar, got %s", got)
	}
}

func TestArabicScriptWithoutMarkersIsStandardArabic(t *testing.T) {
	if got := DetectLanguage("هل يمكنني مساعدتك في شيء ما اليوم", ""); got != LangArabic {
		t.Fatalf("expected ar, got %s", got)
	}
}
