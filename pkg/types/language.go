package types

import (
	"strconv"
	"strings"
)

// Language is one of the languages offered during onboarding.
type Language struct {
	Name       string // English display name stored on the profile
	NativeName string
	Code       string // ISO 639-1
}

// SupportedLanguages lists the onboarding choices in display order.
var SupportedLanguages = []Language{
	{Name: "Hindi", NativeName: "हिंदी", Code: "hi"},
	{Name: "English", NativeName: "English", Code: "en"},
	{Name: "Punjabi", NativeName: "ਪੰਜਾਬੀ", Code: "pa"},
	{Name: "Bengali", NativeName: "বাংলা", Code: "bn"},
	{Name: "Tamil", NativeName: "தமிழ்", Code: "ta"},
	{Name: "Telugu", NativeName: "తెలుగు", Code: "te"},
	{Name: "Marathi", NativeName: "मराठी", Code: "mr"},
	{Name: "Gujarati", NativeName: "ગુજરાતી", Code: "gu"},
	{Name: "Kannada", NativeName: "ಕನ್ನಡ", Code: "kn"},
	{Name: "Malayalam", NativeName: "മലയാളം", Code: "ml"},
}

// LookupLanguage finds a supported language by display name or code,
// ignoring case.
func LookupLanguage(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	for _, l := range SupportedLanguages {
		if strings.EqualFold(l.Name, s) || strings.EqualFold(l.Code, s) {
			return l, true
		}
	}
	return Language{}, false
}

// formatDecimal prints a float the way the profile context has always shown
// it: shortest form, with at least one fractional digit.
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
