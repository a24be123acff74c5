package token

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	once     sync.Once
	encoding *tiktoken.Tiktoken
)

func loadEncoding() {
	once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
}

// Count returns the token count of text using cl100k_base when available,
// falling back to Estimate otherwise.
func Count(text string) int {
	loadEncoding()
	if encoding != nil {
		return len(encoding.Encode(text, nil, nil))
	}
	return Estimate(text)
}

// Estimate returns a heuristic token count: max(runes/3, word count).
// The divisor of 3 leans conservative for mixed CJK/Latin review text.
// Estimate never fails and never returns a negative value.
func Estimate(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	runes := len([]rune(trimmed))
	words := len(strings.Fields(trimmed))
	est := runes / 3
	if est < words {
		est = words
	}
	if est == 0 {
		est = 1
	}
	return est
}
