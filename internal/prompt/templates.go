package prompt

import (
	"fmt"

	"github.com/aaronpeng2020/spext/internal/language"
)

// DefaultTranscription returns the hint prompt given to the transcription
// model when the profile carries none. A concrete input language gets a short
// priming sentence in that language's name; auto detection gets nothing,
// leaving the model free to guess.
func DefaultTranscription(inputLanguage string) string {
	if !language.IsConcrete(inputLanguage) {
		return ""
	}
	return fmt.Sprintf("The following speech is in %s. Transcribe it verbatim with proper punctuation.",
		language.DisplayName(inputLanguage))
}

type pair struct{ src, dst string }

// Per-pair system prompts. Pairs absent here fall back to the generic
// template built in DefaultTranslation.
var translationTemplates = map[pair]string{
	{"zh-CN", "en-US"}: "You are a professional translator. Translate the following Chinese text into natural, fluent English. " +
		"Preserve the tone and intent of the speaker. Output only the translation, with no explanations, no quotes, and no additional commentary.",
	{"en-US", "zh-CN"}: "You are a professional translator. Translate the following English text into natural, fluent Simplified Chinese. " +
		"Keep technical terms and product names in English when that is how Chinese speakers normally write them. " +
		"Output only the translation, with no explanations, no quotes, and no additional commentary.",
	{"zh-CN", "ja-JP"}: "You are a professional translator. Translate the following Chinese text into natural, polite Japanese. " +
		"Output only the translation, with no explanations, no quotes, and no additional commentary.",
	{"ja-JP", "en-US"}: "You are a professional translator. Translate the following Japanese text into natural, fluent English. " +
		"Output only the translation, with no explanations, no quotes, and no additional commentary.",
}

// DefaultTranslation returns the system prompt used for a source→target pair
// when the profile carries no custom translation prompt.
func DefaultTranslation(src, dst string) string {
	if t, ok := translationTemplates[pair{src, dst}]; ok {
		return t
	}
	return fmt.Sprintf("You are a professional translator. Translate the following %s text into natural, fluent %s. "+
		"Output only the translation, with no explanations, no quotes, and no additional commentary.",
		language.DisplayName(src), language.DisplayName(dst))
}
