package chat

import "strings"

// DefaultLanguageTag is used for unknown or missing languages.
const DefaultLanguageTag = "en-in"

var languageTags = map[string]string{
	"english":   "en-in",
	"hindi":     "hi",
	"punjabi":   "pa",
	"bengali":   "bn",
	"tamil":     "ta",
	"telugu":    "te",
	"marathi":   "mr",
	"gujarati":  "gu",
	"kannada":   "kn",
	"malayalam": "ml",
}

// whisperPrefixes are matched in order against a lowercased tag.
var whisperPrefixes = []string{"en", "hi", "bn", "mr", "ta", "te", "kn", "ml", "gu", "pa"}

// LanguageTag maps a profile's display language to a locale tag.
func LanguageTag(displayName string) string {
	if tag, ok := languageTags[strings.ToLower(strings.TrimSpace(displayName))]; ok {
		return tag
	}
	return DefaultLanguageTag
}

// WhisperCode reduces a locale tag to the ISO 639-1 code the speech
// recognizer expects, defaulting to "en".
func WhisperCode(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, p := range whisperPrefixes {
		if strings.HasPrefix(tag, p) {
			return p
		}
	}
	return "en"
}
