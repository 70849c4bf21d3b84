package texttospeech

import (
	"cmp"
	"slices"
	"strings"
)

type Voice struct {
	ID       string
	Name     string
	Language string
}

// ResolveVoice picks the voice to speak with: the voice whose ID or name is
// exactly voiceID, then the first voice containing one of markers (in marker
// order), then the first voice whose language shares language's primary
// subtag. It returns nil when none match, leaving the choice to the host.
func ResolveVoice(voices []Voice, voiceID string, markers []string, language string) *Voice {
	if voiceID != "" {
		for i := range voices {
			if voices[i].ID == voiceID || voices[i].Name == voiceID {
				return &voices[i]
			}
		}
	}

	for _, marker := range markers {
		if marker == "" {
			continue
		}
		for i := range voices {
			if strings.Contains(voices[i].ID, marker) || strings.Contains(voices[i].Name, marker) {
				return &voices[i]
			}
		}
	}

	if prefix := primaryLanguage(language); prefix != "" {
		for i := range voices {
			if primaryLanguage(voices[i].Language) == prefix {
				return &voices[i]
			}
		}
	}

	return nil
}

// VoicesForLanguage lists voices sharing language's primary subtag, sorted by
// name.
func VoicesForLanguage(voices []Voice, language string) []Voice {
	prefix := primaryLanguage(language)
	matching := []Voice{}
	for _, voice := range voices {
		if prefix == "" || primaryLanguage(voice.Language) == prefix {
			matching = append(matching, voice)
		}
	}
	slices.SortStableFunc(matching, func(a, b Voice) int { return cmp.Compare(a.Name, b.Name) })
	return matching
}

func primaryLanguage(language string) string {
	primary, _, _ := strings.Cut(language, "-")
	return strings.ToLower(primary)
}
