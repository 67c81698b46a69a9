// Package prompt renders the transcription and translation prompts a profile
// carries. Templates may reference runtime variables in {curly_braces}; the
// rendered text is sanitized before it is sent to a model.
package prompt

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/aaronpeng2020/spext/internal/language"
)

// MaxLength caps rendered prompts. Anything longer is truncated, not rejected,
// so a runaway template degrades instead of breaking dictation.
const MaxLength = 2000

// Vars carries the values substituted into a template.
type Vars struct {
	ProfileName    string
	InputLanguage  string // BCP-47 code or sentinel
	OutputLanguage string
	Now            time.Time // zero value means time.Now()
}

// Process substitutes the supported variables into template and sanitizes the
// result. Unknown {placeholders} are left as-is.
func Process(template string, v Vars) string {
	if template == "" {
		return ""
	}
	now := v.Now
	if now.IsZero() {
		now = time.Now()
	}
	r := strings.NewReplacer(
		"{input_language}", language.DisplayName(v.InputLanguage),
		"{output_language}", language.DisplayName(v.OutputLanguage),
		"{input_language_code}", v.InputLanguage,
		"{output_language_code}", v.OutputLanguage,
		"{profile_name}", v.ProfileName,
		"{date}", now.Format("2006-01-02"),
		"{time}", now.Format("15:04"),
	)
	return Sanitize(r.Replace(template))
}

// Sanitize strips control characters, collapses runs of whitespace into
// single spaces (newlines survive as spaces) and enforces MaxLength.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	out := b.String()
	if len(out) > MaxLength {
		out = truncateRunes(out, MaxLength)
	}
	return out
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for i := max; i > 0; i-- {
		if s[i]&0xC0 != 0x80 { // not a UTF-8 continuation byte
			return s[:i]
		}
	}
	return ""
}

// Validate reports template problems: unbalanced braces and unknown variables.
func Validate(template string) error {
	depth := 0
	var name strings.Builder
	for _, r := range template {
		switch r {
		case '{':
			depth++
			if depth > 1 {
				return fmt.Errorf("nested braces in template")
			}
			name.Reset()
		case '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("unbalanced braces in template")
			}
			if !knownVariable(name.String()) {
				return fmt.Errorf("unknown template variable {%s}", name.String())
			}
		default:
			if depth > 0 {
				name.WriteRune(r)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("unbalanced braces in template")
	}
	return nil
}

func knownVariable(name string) bool {
	switch name {
	case "input_language", "output_language",
		"input_language_code", "output_language_code",
		"profile_name", "date", "time":
		return true
	}
	return false
}
