// Package frontmatter extracts the metadata block that may prefix article sources.
//
// The parser works in two phases. The first phase detects the block: the very
// first line (after an optional UTF-8 BOM) must be a marker line "---", and the
// block ends at the next marker line. Delimiter scanning is done by
// github.com/adrg/frontmatter with a custom format. The second phase reads the
// lines in between, one "key: value" pair per line.
//
// Supported grammar:
//
//	document = [ block ] body
//	block    = marker NL *( line NL ) marker ( NL | EOF )
//	marker   = "---" followed only by whitespace
//	line     = key ":" [ SP ] value         ; a pair
//	         | "#" text                     ; comment, ignored
//	         | anything else                ; skipped
//	key      = 1*( ALPHA / DIGIT / "_" / "-" ), lower-cased
//	value    = rest of the line, trimmed, one pair of '' or "" quotes removed
//
// Indented lines, nested maps and multi-line values are not supported and are
// skipped. Parse never fails: a missing block yields empty metadata and the
// input unchanged as body, and an unterminated block does the same with
// Degraded set.
package frontmatter

import (
	"strings"

	"github.com/adrg/frontmatter"
)

// Marker delimits the metadata block.
const Marker = "---"

const bom = "\ufeff"

// Document is the result of parsing one source.
type Document struct {
	Meta map[string]string
	Body string
	// Degraded is set when a block was opened but could not be read, so the
	// whole input was kept as body.
	Degraded bool
}

// Get returns the trimmed value for key, or "".
func (d Document) Get(key string) string {
	return d.Meta[key]
}

// Has reports whether the key was present in the block, even with an empty value.
func (d Document) Has(key string) bool {
	_, ok := d.Meta[key]
	return ok
}

// Parse splits raw into metadata and body.
func Parse(raw string) Document {
	s := strings.TrimPrefix(raw, bom)
	first, _, _ := strings.Cut(s, "\n")
	if !isMarker(first) {
		return Document{Meta: map[string]string{}, Body: raw}
	}

	var blk block
	body, err := frontmatter.Parse(strings.NewReader(s), &blk, blockFormat)
	if err != nil || !blk.found {
		return Document{Meta: map[string]string{}, Body: raw, Degraded: true}
	}
	return Document{Meta: blk.meta, Body: strings.TrimLeft(string(body), "\r\n")}
}

// block receives phase two's result. found stays false when no closing
// marker was seen, because the format's unmarshal func is never called.
type block struct {
	meta  map[string]string
	found bool
}

var blockFormat = frontmatter.NewFormat(Marker, Marker, unmarshalBlock)

func unmarshalBlock(data []byte, v any) error {
	blk := v.(*block)
	blk.meta = parseLines(strings.Split(string(data), "\n"))
	blk.found = true
	return nil
}

func isMarker(line string) bool {
	return strings.TrimRight(line, " \t\r") == Marker
}

// parseLines performs phase two. Later duplicates overwrite earlier ones.
func parseLines(lines []string) map[string]string {
	meta := make(map[string]string, len(lines))
	for _, line := range lines {
		key, value, ok := parseLine(line)
		if !ok {
			continue
		}
		meta[key] = value
	}
	return meta
}

func parseLine(line string) (string, string, bool) {
	line = strings.TrimRight(line, "\r")
	if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' {
		return "", "", false
	}

	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", false
	}
	after := line[idx+1:]

	key := strings.ToLower(strings.TrimSpace(line[:idx]))
	if !validKey(key) {
		return "", "", false
	}
	return key, unquote(strings.TrimSpace(after)), true
}

func validKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}
