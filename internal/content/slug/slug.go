// Package slug derives canonical URL-safe identifiers for articles.
package slug

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"path/filepath"
	"strings"
)

// MaxLength is the longest slug Normalize produces.
const MaxLength = 200

// fallbackPrefix starts slugs generated for names that normalize to nothing.
const fallbackPrefix = "item-"

// fallbackHashLen is the number of hex characters of the filename hash kept.
const fallbackHashLen = 10

// Resolution is the outcome of resolving one source item.
type Resolution struct {
	// Slug is the canonical identifier.
	Slug string
	// Aliases are historical identifiers that should also find the article.
	// They never contain Slug and keep first-seen order.
	Aliases []string
	// Fallback is set when neither the explicit slug nor the filename
	// produced a usable slug and a hash-based one was generated.
	Fallback bool
}

// Normalize turns s into slug form: lowercase, spaces and underscores become
// hyphens, anything outside [a-z0-9-] is removed, repeated hyphens collapse
// and leading or trailing hyphens are trimmed. The result may be empty.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || r == ' ' || r == '_' || r == '\t':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}

// FromFilename strips directory and extension from name and normalizes the rest.
func FromFilename(name string) string {
	base := path.Base(filepath.ToSlash(name))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return Normalize(base)
}

// Fallback returns the deterministic slug used when name normalizes to nothing.
func Fallback(name string) string {
	sum := sha256.Sum256([]byte(name))
	return fallbackPrefix + hex.EncodeToString(sum[:])[:fallbackHashLen]
}

// Resolve picks the canonical slug for a source item. An explicit slug wins
// when it normalizes to something; the filename-derived slug is then kept as an
// alias. Extra aliases are normalized and deduplicated.
func Resolve(filename, explicit string, aliases []string) Resolution {
	fromName := FromFilename(filename)
	res := Resolution{Slug: Normalize(explicit)}

	switch {
	case res.Slug != "":
	case fromName != "":
		res.Slug = fromName
	default:
		res.Slug = Fallback(filename)
		res.Fallback = true
	}

	seen := map[string]bool{res.Slug: true}
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		res.Aliases = append(res.Aliases, s)
	}
	add(fromName)
	for _, a := range aliases {
		add(Normalize(a))
	}
	return res
}
