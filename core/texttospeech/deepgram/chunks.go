package deepgram

import (
	"strings"
	"unicode/utf8"
)

// maxSpeakChars is the most text Deepgram accepts in one Speak message.
const maxSpeakChars = 2000

// splitText cuts text into pieces of at most limit runes. Cuts prefer
// sentence ends, then spaces, and only split words that are longer than
// limit.
func splitText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	chunks := []string{}
	for utf8.RuneCountInString(text) > limit {
		window := prefixRunes(text, limit)
		cut := lastSentenceEnd(window)
		if cut <= 0 {
			cut = strings.LastIndexByte(window, ' ')
		}
		if cut <= 0 {
			cut = len(window)
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func prefixRunes(s string, n int) string {
	i := 0
	for count := 0; count < n && i < len(s); count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}

// lastSentenceEnd returns the byte offset just past the last sentence end
// followed by a space in s, or -1.
func lastSentenceEnd(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		if s[i+1] == ' ' && strings.IndexByte(".!?", s[i]) >= 0 {
			return i + 1
		}
	}
	return -1
}
