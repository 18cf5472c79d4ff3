package entity

import "strings"

// LayoutType selects the rendering strategy the presentation layer uses for a channel.
// The core stores and returns it unchanged.
type LayoutType string

const (
	LayoutClassic  LayoutType = "classic"
	LayoutMagazine LayoutType = "magazine"
	LayoutMinimal  LayoutType = "minimal"
	LayoutGrid     LayoutType = "grid"
	LayoutPortal   LayoutType = "portal"

	// DefaultLayout is used for missing or unrecognized layout values.
	DefaultLayout = LayoutClassic
)

var knownLayouts = map[LayoutType]bool{
	LayoutClassic:  true,
	LayoutMagazine: true,
	LayoutMinimal:  true,
	LayoutGrid:     true,
	LayoutPortal:   true,
}

// ParseLayoutType maps a configured value to a known layout, falling back to DefaultLayout.
func ParseLayoutType(raw string) LayoutType {
	lt := LayoutType(strings.ToLower(strings.TrimSpace(raw)))
	if knownLayouts[lt] {
		return lt
	}
	return DefaultLayout
}

// Valid reports whether the layout is one of the known variants.
func (l LayoutType) Valid() bool {
	return knownLayouts[l]
}

// SocialLinks holds optional social profile URLs for a channel.
type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty" yaml:"facebook" toml:"facebook"`
	Twitter   string `json:"twitter,omitempty" yaml:"twitter" toml:"twitter"`
	Instagram string `json:"instagram,omitempty" yaml:"instagram" toml:"instagram"`
}

// IsZero reports whether no link is configured.
func (s SocialLinks) IsZero() bool {
	return s.Facebook == "" && s.Twitter == "" && s.Instagram == ""
}

// Channel is an independently branded news site served by the portal.
type Channel struct {
	ID          string
	Subdomain   string
	Name        string
	Tagline     string
	Description string
	Layout      LayoutType
	Categories  []string
	SocialLinks SocialLinks
	Keywords    []string
}

// HasCategory reports whether the channel lists the category (case-insensitive).
func (c *Channel) HasCategory(category string) bool {
	for _, cat := range c.Categories {
		if strings.EqualFold(cat, category) {
			return true
		}
	}
	return false
}
