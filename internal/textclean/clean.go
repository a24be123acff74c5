package textclean

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Clean converts raw review markup to plain text. HTML is parsed and its
// text content extracted; if parsing fails the input is scrubbed with a
// regex tag strip and entity decode instead. Clean never fails.
func Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := raw
	if strings.ContainsAny(raw, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
		if err == nil {
			// Line breaks and paragraph ends become spaces so sentences
			// from adjacent blocks don't fuse into one word.
			doc.Find("br").ReplaceWithHtml(" ")
			doc.Find("p, div, li").AppendHtml(" ")
			text = doc.Text()
		} else {
			text = fallbackClean(raw)
		}
	}

	text = html.UnescapeString(text)
	return collapseWhitespace(text)
}

func fallbackClean(raw string) string {
	return tagPattern.ReplaceAllString(raw, " ")
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
