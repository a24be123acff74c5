package redact

import (
	"regexp"
)

const placeholder = "[REMOVED]"

// piiPatterns are regex heuristics for personal data that shows up in
// customer review text.
var piiPatterns = []*regexp.Regexp{
	// Email addresses
	regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
	// URLs
	regexp.MustCompile(`https?://[^\s]+`),
	// Order and tracking numbers (long digit runs, optionally separated)
	regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4,}\b`),
	// Phone numbers (international and local forms; the length floor keeps
	// plain dates like 2026-04-01 out)
	regexp.MustCompile(`\+?\d[\d\s().-]{9,}\d`),
	// IP addresses
	regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
	// Social handles
	regexp.MustCompile(`@[A-Za-z0-9_]{3,}`),
}

// Mask replaces detected personal data in review text with [REMOVED].
func Mask(text string) string {
	result := text
	for _, pat := range piiPatterns {
		result = pat.ReplaceAllString(result, placeholder)
	}
	return result
}
