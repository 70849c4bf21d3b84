package texttospeech

import (
	"cmp"
	"slices"
	"strings"
)

type Language struct {
	Code string
	Name string
}

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"hi": "Hindi",
	"ar": "Arabic",
	"ru": "Russian",
	"nl": "Dutch",
	"pl": "Polish",
	"tr": "Turkish",
}

// LanguageCode keeps the first two subtags of a voice language, so
// "en-US-x-local" becomes "en-US".
func LanguageCode(language string) string {
	parts := strings.Split(language, "-")
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return parts[0]
}

// LanguageName formats a code for display, "en-US" as "English (US)".
// Unknown languages fall back to the upper cased code.
func LanguageName(code string) string {
	primary, region, _ := strings.Cut(code, "-")
	primary = strings.ToLower(primary)

	name, ok := languageNames[primary]
	if !ok {
		name = strings.ToUpper(primary)
	}
	if region == "" {
		return name
	}
	region, _, _ = strings.Cut(region, "-")
	return name + " (" + strings.ToUpper(region) + ")"
}

// Languages lists the distinct language codes of voices sorted by display
// name.
func Languages(voices []Voice) []Language {
	seen := map[string]bool{}
	languages := []Language{}
	for _, voice := range voices {
		code := LanguageCode(voice.Language)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		languages = append(languages, Language{Code: code, Name: LanguageName(code)})
	}
	slices.SortStableFunc(languages, func(a, b Language) int { return cmp.Compare(a.Name, b.Name) })
	return languages
}
