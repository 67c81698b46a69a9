package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProcessSubstitutesVariables(t *testing.T) {
	v := Vars{
		ProfileName:    "work",
		InputLanguage:  "zh-CN",
		OutputLanguage: "en-US",
		Now:            time.Date(2025, 3, 14, 9, 26, 0, 0, time.UTC),
	}
	got := Process("[{profile_name}] {input_language} / {input_language_code} -> {output_language_code} on {date} at {time}", v)
	assert.Equal(t, "[work] Chinese (Simplified) / zh-CN -> en-US on 2025-03-14 at 09:26", got)
}

func TestProcessLeavesUnknownPlaceholders(t *testing.T) {
	got := Process("keep {mystery} intact", Vars{})
	assert.Equal(t, "keep {mystery} intact", got)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a b c", Sanitize("  a\t\tb\n\nc  "))
	assert.Equal(t, "clean", Sanitize("cl\x00e\x1ban"))
	assert.Equal(t, "", Sanitize("   "))

	long := Sanitize(strings.Repeat("x", MaxLength+100))
	assert.Len(t, long, MaxLength)

	// truncation never splits a multi-byte rune
	cjk := Sanitize(strings.Repeat("语", MaxLength))
	assert.True(t, len(cjk) <= MaxLength)
	assert.True(t, strings.HasSuffix(cjk, "语"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("plain text"))
	assert.NoError(t, Validate("hello {profile_name}, today is {date}"))
	assert.Error(t, Validate("broken {date"))
	assert.Error(t, Validate("broken date}"))
	assert.Error(t, Validate("{nested {date}}"))
	assert.Error(t, Validate("unknown {nope}"))
}

func TestDefaultTranscription(t *testing.T) {
	assert.Empty(t, DefaultTranscription("auto"))
	assert.Empty(t, DefaultTranscription(""))
	assert.Contains(t, DefaultTranscription("ja-JP"), "Japanese")
}

func TestDefaultTranslation(t *testing.T) {
	zhEn := DefaultTranslation("zh-CN", "en-US")
	assert.Contains(t, zhEn, "professional translator")
	assert.Contains(t, zhEn, "Chinese")

	// unlisted pair falls back to the generic template
	generic := DefaultTranslation("ko-KR", "fr-FR")
	assert.Contains(t, generic, "Korean")
	assert.Contains(t, generic, "French")
}
