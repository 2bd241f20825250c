// Package richtext turns the HTML produced by a rich-text editor into the
// plain text accepted by the broadcast endpoint.
package richtext

import (
	"regexp"
	"strings"
)

var (
	// opening paragraph tags, with or without attributes
	paragraphOpen = regexp.MustCompile(`(?i)<p(\s[^>]*)?>`)
	// line breaks and closing paragraph tags end a line
	lineEnd = regexp.MustCompile(`(?i)<br(\s[^>]*)?/?>|</p>`)
)

// Normalize strips paragraph markup and converts line-ending tags into
// newlines. Any other markup (bold, links) is passed through untouched.
func Normalize(html string) string {
	text := paragraphOpen.ReplaceAllString(html, "")
	return lineEnd.ReplaceAllString(text, "\n")
}

// FromPlain wraps plain text lines in paragraphs so a message typed in a
// terminal goes through the same normalization as editor output.
func FromPlain(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	var b strings.Builder
	for _, line := range lines {
		b.WriteString("<p>")
		b.WriteString(line)
		b.WriteString("</p>")
	}
	return b.String()
}
