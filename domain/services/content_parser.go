package services

import (
	"regexp"
	"strings"
)

// ContentParser extracts display titles and referenced titles from raw node
// content. Content arrives in two encodings: plain text with delimited
// references ([[Title]]) and rich-editor markup that embeds the referenced
// title in a data attribute. Implementations must be pure and total.
type ContentParser interface {
	// ExtractTitle derives a display title from raw content.
	// Never returns an empty string.
	ExtractTitle(content string) string

	// ExtractReferencedTitles returns every referenced title found in the
	// content, lowercased, de-duplicated, in first-seen document order.
	ExtractReferencedTitles(content string) []string
}

var (
	markupTagPattern = regexp.MustCompile(`<[^>]*>`)
	headingPattern   = regexp.MustCompile(`^#+\s+`)

	// Delimited references ([[Title]]) and rich-editor reference spans
	// (data-title="Title") matched in a single pass so first-seen order
	// follows document order across both encodings.
	referencePattern = regexp.MustCompile(`\[\[([^\[\]\n]+)\]\]|data-title="([^"]*)"`)
)

// DefaultContentParser provides the default implementation of ContentParser
type DefaultContentParser struct{}

// NewDefaultContentParser creates a new content parser
func NewDefaultContentParser() *DefaultContentParser {
	return &DefaultContentParser{}
}

// ExtractTitle derives a display title from raw content: markup tags are
// stripped, the first non-empty remaining line wins, and a leading heading
// marker is removed. Empty or whitespace-only content yields "Untitled".
func (p *DefaultContentParser) ExtractTitle(content string) string {
	plain := markupTagPattern.ReplaceAllString(content, "\n")

	for _, line := range strings.Split(plain, "\n") {
		line = strings.TrimSpace(headingPattern.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			return line
		}
	}

	return "Untitled"
}

// ExtractReferencedTitles scans the content for both reference encodings and
// returns the captured titles lowercased, de-duplicated while preserving
// first-seen order.
func (p *DefaultContentParser) ExtractReferencedTitles(content string) []string {
	matches := referencePattern.FindAllStringSubmatch(content, -1)

	titles := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))

	for _, m := range matches {
		captured := m[1]
		if captured == "" {
			captured = m[2]
		}

		title := strings.ToLower(strings.TrimSpace(captured))
		if title == "" || seen[title] {
			continue
		}

		seen[title] = true
		titles = append(titles, title)
	}

	return titles
}
