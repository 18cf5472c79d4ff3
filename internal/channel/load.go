package channel

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"newsportal/internal/domain/entity"
)

//go:embed channels.yaml
var defaultChannels []byte

// fileChannel is the on-disk shape of one channel entry.
type fileChannel struct {
	ID          string             `yaml:"id" toml:"id"`
	Subdomain   string             `yaml:"subdomain" toml:"subdomain"`
	Name        string             `yaml:"name" toml:"name"`
	Tagline     string             `yaml:"tagline" toml:"tagline"`
	Description string             `yaml:"description" toml:"description"`
	Layout      string             `yaml:"layout" toml:"layout"`
	Categories  []string           `yaml:"categories" toml:"categories"`
	SocialLinks entity.SocialLinks `yaml:"social_links" toml:"social_links"`
	Keywords    []string           `yaml:"keywords" toml:"keywords"`
}

type file struct {
	Channels []fileChannel `yaml:"channels" toml:"channels"`
}

func (f file) toEntities() []entity.Channel {
	out := make([]entity.Channel, 0, len(f.Channels))
	for _, c := range f.Channels {
		out = append(out, entity.Channel{
			ID:          c.ID,
			Subdomain:   c.Subdomain,
			Name:        c.Name,
			Tagline:     c.Tagline,
			Description: c.Description,
			Layout:      entity.ParseLayoutType(c.Layout),
			Categories:  c.Categories,
			SocialLinks: c.SocialLinks,
			Keywords:    c.Keywords,
		})
	}
	return out
}

// Load reads a channel file. The format is chosen by extension:
// .yaml/.yml for YAML and .toml for TOML.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channel file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".toml":
		return ParseTOML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ParseYAML builds a registry from YAML channel data.
func ParseYAML(data []byte) (*Registry, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode channel yaml: %w", err)
	}
	return New(f.toEntities())
}

// ParseTOML builds a registry from TOML channel data.
func ParseTOML(data []byte) (*Registry, error) {
	var f file
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("decode channel toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode channel toml: unknown key %q", undecoded[0].String())
	}
	return New(f.toEntities())
}

// Default returns the registry built from the embedded channel set.
func Default() (*Registry, error) {
	r, err := ParseYAML(defaultChannels)
	if err != nil {
		return nil, fmt.Errorf("load default channels: %w", err)
	}
	return r, nil
}
