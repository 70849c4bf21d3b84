package failures

import (
	"strings"
	"unicode/utf8"
)

const (
	MessageQuota        = "You exceeded your current quota, please check your plan and billing details."
	MessageInvalidKey   = "Invalid API key. Please check your configuration."
	MessageNetwork      = "Network error. Please check your internet connection and try again."
	MessageUnknown      = "An error occurred while processing your message."
	MessageUnknownRetry = "An error occurred while processing your message. Please try again."
	MessageNoSpeech     = "No speech detected. Please try again."
)

// maxSentenceLength is the exclusive bound for passing a first sentence
// through unchanged.
const maxSentenceLength = 100

type rule struct {
	needles []string
	message string
}

// Order matters, the first matching rule wins.
var rules = []rule{
	{needles: []string{"quota", "exceeded", "rate limit"}, message: MessageQuota},
	{needles: []string{"api key", "authentication", "unauthorized"}, message: MessageInvalidKey},
	{needles: []string{"network", "fetch", "connection"}, message: MessageNetwork},
}

// Classify maps an arbitrary error to one human readable message. It is pure
// and never fails.
func Classify(err error) string {
	if err == nil {
		return MessageUnknown
	}
	return ClassifyText(err.Error())
}

func ClassifyText(raw string) string {
	lowered := strings.ToLower(raw)
	for _, r := range rules {
		for _, needle := range r.needles {
			if strings.Contains(lowered, needle) {
				return r.message
			}
		}
	}

	sentence := firstSentence(raw)
	if sentence != "" && utf8.RuneCountInString(sentence) < maxSentenceLength {
		if trimmed := strings.TrimSpace(sentence); trimmed != "" {
			return trimmed
		}
		return MessageUnknown
	}

	return MessageUnknownRetry
}

func firstSentence(s string) string {
	if i := strings.IndexAny(s, ".!?"); i >= 0 {
		return s[:i]
	}
	return s
}
