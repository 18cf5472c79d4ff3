// Package sanitize makes ingested article bodies safe to embed in HTML and
// extracts plain text from them for excerpts and search.
package sanitize

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer provides HTML sanitization functionality.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New creates a Sanitizer with a user-generated-content policy.
func New() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &Sanitizer{policy: p}
}

// HTML strips scripts, event handlers and other unsafe markup, then trims the result.
func (s *Sanitizer) HTML(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

var strict = bluemonday.StrictPolicy()

// PlainText returns the visible text of raw with whitespace collapsed.
// Markdown heading markers at the start of lines are dropped.
func PlainText(raw string) string {
	if raw == "" {
		return ""
	}
	raw = stripHeadingMarkers(raw)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return normalizeWhitespace(html.UnescapeString(strict.Sanitize(raw)))
	}
	doc.Find("script, style").Remove()
	return normalizeWhitespace(doc.Text())
}

func stripHeadingMarkers(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		text := strings.TrimLeft(trimmed, "#")
		if text == "" || text[0] == ' ' || text[0] == '\t' {
			lines[i] = strings.TrimSpace(text)
		}
	}
	return strings.Join(lines, "\n")
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
