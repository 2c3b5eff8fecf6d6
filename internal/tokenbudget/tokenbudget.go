// Package tokenbudget counts and bounds text by token count using the
// cl100k_base encoding, the way the teacher's internal/shared/token
// package estimates context size before compaction.
package tokenbudget

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoding() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = e
		}
	})
	return enc
}

// CountTokens returns text's token count under cl100k_base, falling
// back to a rune/4 estimate if the encoding could not be loaded.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if e := encoding(); e != nil {
		return len(e.Encode(text, nil, nil))
	}
	return (len([]rune(text)) + 3) / 4
}

// Truncate returns the tail of text that fits within maxTokens,
// preferring the most recent content (the history ending nearest the
// current turn) over the oldest. maxTokens <= 0 disables truncation.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || CountTokens(text) <= maxTokens {
		return text
	}

	e := encoding()
	if e == nil {
		// Fallback encoding is unavailable; approximate by runes.
		maxRunes := maxTokens * 4
		runes := []rune(text)
		if len(runes) <= maxRunes {
			return text
		}
		return string(runes[len(runes)-maxRunes:])
	}

	tokens := e.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return e.Decode(tokens[len(tokens)-maxTokens:])
}
