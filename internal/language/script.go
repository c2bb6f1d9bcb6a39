package language

import "unicode"

// ScriptDetector classifies texts by Unicode script ranges and returns the
// code winning the vote across all candidates. Ambiguous or empty input
// yields the fallback code.
type ScriptDetector struct {
	Fallback string
}

// Detect votes one language per candidate text and returns the most common
// verdict, or the fallback when no text yields one.
func (d ScriptDetector) Detect(texts []string) string {
	votes := make(map[string]int)
	for _, text := range texts {
		if code := classify(text); code != "" {
			votes[code]++
		}
	}

	best, bestCount := "", 0
	for code, count := range votes {
		if count > bestCount || (count == bestCount && code < best) {
			best, bestCount = code, count
		}
	}
	if best == "" {
		return d.Fallback
	}
	return best
}

// classify returns the ISO code implied by the dominant script of one text,
// or "" when the text carries no letters.
func classify(text string) string {
	var latin, cyrillic, ukrainian, han, kana, hangul, arabic int
	for _, r := range text {
		switch {
		case r == 'і' || r == 'ї' || r == 'є' || r == 'ґ' || r == 'І' || r == 'Ї' || r == 'Є' || r == 'Ґ':
			// Letters present in Ukrainian but absent from Russian
			ukrainian++
			cyrillic++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			kana++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}

	switch {
	case kana > 0:
		return "ja"
	case hangul > 0:
		return "ko"
	case han > 0:
		return "zh"
	case arabic > 0:
		return "ar"
	case cyrillic > latin:
		if ukrainian > 0 {
			return "uk"
		}
		return "ru"
	case latin > 0:
		return "en"
	}
	return ""
}
