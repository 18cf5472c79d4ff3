package frontmatter

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"newsportal/internal/content/sanitize"
)

// DefaultExcerptLength is the number of characters kept for derived excerpts.
const DefaultExcerptLength = 160

// Ellipsis marks a truncated excerpt.
const Ellipsis = "…"

// Title returns the metadata title, or the first top-level heading of the body.
func (d Document) Title() string {
	if t := d.Get("title"); t != "" {
		return t
	}
	return FirstHeading(d.Body)
}

// Excerpt returns the metadata description, or the first n characters of the
// body's plain text.
func (d Document) Excerpt(n int) string {
	if desc := d.Get("description"); desc != "" {
		return desc
	}
	return Excerpt(d.Body, n)
}

// FirstHeading returns the text of the first "# " line in body, or "".
func FirstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		rest, ok := strings.CutPrefix(line, "#")
		if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		text := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(rest), "#"))
		if text != "" {
			return text
		}
	}
	return ""
}

// Excerpt truncates the plain text of body to n characters, preferring a word
// boundary, and appends Ellipsis when anything was cut.
func Excerpt(body string, n int) string {
	if n <= 0 {
		n = DefaultExcerptLength
	}
	text := sanitize.PlainText(body)
	if utf8.RuneCountInString(text) <= n {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)*4/5 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + Ellipsis
}

// List splits a list value. Both "a, b" and the flow form "[a, b]" are accepted;
// a malformed flow list falls back to splitting on commas. Empty entries and
// case-insensitive duplicates are dropped, first spelling wins.
func List(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	var items []string
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		if err := yaml.Unmarshal([]byte(value), &items); err != nil {
			items = strings.Split(value[1:len(value)-1], ",")
		}
	} else {
		items = strings.Split(value, ",")
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = unquote(strings.TrimSpace(item))
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// Bool interprets yes/no style flags. Unrecognized values are false.
func Bool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "on", "y":
		return true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Time parses a date value. Values without a zone are read as UTC.
func Time(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
