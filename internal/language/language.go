package language

import "strings"

// Info describes one supported language.
type Info struct {
	Code        string // BCP 47 style code, e.g. "zh-CN"
	Name        string // English display name
	NativeName  string
	WhisperCode string // short code for the transcription API
}

// Sentinel codes that mean "no concrete language".
const (
	Auto  = "auto"
	None  = "none"
	Mixed = "mixed"
)

var supported = []Info{
	{Code: "zh-CN", Name: "Chinese (Simplified)", NativeName: "简体中文", WhisperCode: "zh"},
	{Code: "zh-TW", Name: "Chinese (Traditional)", NativeName: "繁體中文", WhisperCode: "zh"},
	{Code: "en-US", Name: "English (US)", NativeName: "English", WhisperCode: "en"},
	{Code: "en-GB", Name: "English (UK)", NativeName: "English", WhisperCode: "en"},
	{Code: "ja-JP", Name: "Japanese", NativeName: "日本語", WhisperCode: "ja"},
	{Code: "ko-KR", Name: "Korean", NativeName: "한국어", WhisperCode: "ko"},
	{Code: "es-ES", Name: "Spanish", NativeName: "Español", WhisperCode: "es"},
	{Code: "fr-FR", Name: "French", NativeName: "Français", WhisperCode: "fr"},
	{Code: "de-DE", Name: "German", NativeName: "Deutsch", WhisperCode: "de"},
	{Code: "ru-RU", Name: "Russian", NativeName: "Русский", WhisperCode: "ru"},
	{Code: "pt-BR", Name: "Portuguese (Brazil)", NativeName: "Português", WhisperCode: "pt"},
	{Code: "it-IT", Name: "Italian", NativeName: "Italiano", WhisperCode: "it"},
	{Code: "ar-SA", Name: "Arabic", NativeName: "العربية", WhisperCode: "ar"},
	{Code: "hi-IN", Name: "Hindi", NativeName: "हिन्दी", WhisperCode: "hi"},
	{Code: "th-TH", Name: "Thai", NativeName: "ไทย", WhisperCode: "th"},
	{Code: "vi-VN", Name: "Vietnamese", NativeName: "Tiếng Việt", WhisperCode: "vi"},
	{Code: Mixed, Name: "Mixed Languages", NativeName: "混合语言", WhisperCode: ""},
}

// Supported returns the full language table.
func Supported() []Info {
	out := make([]Info, len(supported))
	copy(out, supported)
	return out
}

// ByCode looks up a language by its full code.
func ByCode(code string) (Info, bool) {
	for _, l := range supported {
		if l.Code == code {
			return l, true
		}
	}
	return Info{}, false
}

// DisplayName returns the English name for a code, or the code itself when unknown.
func DisplayName(code string) string {
	if l, ok := ByCode(code); ok {
		return l.Name
	}
	return code
}

// WhisperCode maps a language code to the short code the transcription API
// expects. Sentinel and mixed codes map to "auto"; unknown codes are reduced
// to their primary subtag.
func WhisperCode(code string) string {
	if code == "" || code == Auto || code == None || code == Mixed {
		return Auto
	}
	if l, ok := ByCode(code); ok && l.WhisperCode != "" {
		return l.WhisperCode
	}
	return strings.SplitN(code, "-", 2)[0]
}

// IsConcrete reports whether code names an actual language rather than a
// sentinel value.
func IsConcrete(code string) bool {
	return code != "" && code != Auto && code != None
}
