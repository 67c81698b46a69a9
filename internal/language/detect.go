package language

import "unicode"

// Detector guesses the language of a transcript. Used by the recognition
// pipeline when a profile's input language is "auto" but a translation prompt
// needs a concrete source language.
type Detector interface {
	Detect(text string) (code string, ok bool)
}

// ScriptDetector classifies text by Unicode script counts. It cannot separate
// languages sharing a script (Latin resolves to English, Han to Simplified
// Chinese), but it is deterministic and needs no network call.
type ScriptDetector struct{}

// Detect returns the dominant script's language code. ok is false when the
// text contains no letters at all.
func (ScriptDetector) Detect(text string) (string, bool) {
	counts := map[string]int{}
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			counts["ja-JP"]++
		case unicode.Is(unicode.Hangul, r):
			counts["ko-KR"]++
		case unicode.Is(unicode.Han, r):
			counts["zh-CN"]++
		case unicode.Is(unicode.Cyrillic, r):
			counts["ru-RU"]++
		case unicode.Is(unicode.Arabic, r):
			counts["ar-SA"]++
		case unicode.Is(unicode.Thai, r):
			counts["th-TH"]++
		case unicode.Is(unicode.Devanagari, r):
			counts["hi-IN"]++
		case unicode.Is(unicode.Latin, r):
			counts["en-US"]++
		}
	}
	if len(counts) == 0 {
		return "", false
	}
	// Kana is decisive: Japanese text is mostly Han plus some kana, so any
	// kana at all outweighs the Han count.
	if counts["ja-JP"] > 0 {
		return "ja-JP", true
	}
	best, bestN := "", 0
	for code, n := range counts {
		if n > bestN {
			best, bestN = code, n
		}
	}
	return best, true
}
