package channel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsportal/internal/domain/entity"
)

func fixture() []entity.Channel {
	return []entity.Channel{
		{ID: "nasional", Subdomain: "nasional", Name: "Nasional", Layout: "portal", Categories: []string{"Politik", "Ekonomi"}},
		{ID: "olahraga", Subdomain: "Sport", Name: "Olahraga", Layout: "carousel"},
		{ID: "gaya", Name: "Gaya"},
	}
}

/* ───────────────────────────────────────────────────────────────
   New
   ─────────────────────────────────────────────────────────────── */

func TestNew_NormalizesChannels(t *testing.T) {
	r, err := New(fixture())
	require.NoError(t, err)

	got := r.List()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"nasional", "olahraga", "gaya"}, r.IDs())
	assert.Equal(t, entity.LayoutPortal, got[0].Layout)
	assert.Equal(t, entity.LayoutClassic, got[1].Layout, "unknown layout falls back to default")
	assert.Equal(t, "sport", got[1].Subdomain)
	assert.Equal(t, "gaya", got[2].Subdomain, "missing subdomain defaults to id")
}

func TestNew_RejectsDuplicates(t *testing.T) {
	tests := []struct {
		name     string
		channels []entity.Channel
	}{
		{
			name: "duplicate id",
			channels: []entity.Channel{
				{ID: "a", Name: "A"},
				{ID: "A", Subdomain: "other", Name: "A2"},
			},
		},
		{
			name: "duplicate subdomain",
			channels: []entity.Channel{
				{ID: "a", Subdomain: "news", Name: "A"},
				{ID: "b", Subdomain: "NEWS", Name: "B"},
			},
		},
		{
			name: "id equals another subdomain",
			channels: []entity.Channel{
				{ID: "a", Subdomain: "b", Name: "A"},
				{ID: "b", Subdomain: "c", Name: "B"},
			},
		},
		{
			name: "subdomain equals another id",
			channels: []entity.Channel{
				{ID: "a", Name: "A"},
				{ID: "b", Subdomain: "a", Name: "B"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.channels)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDuplicateChannel), "got %v", err)
		})
	}
}

func TestNew_RejectsInvalidChannel(t *testing.T) {
	_, err := New([]entity.Channel{{ID: "", Name: "x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrValidationFailed)

	_, err = New([]entity.Channel{{ID: "ok", Name: "x", SocialLinks: entity.SocialLinks{Twitter: "javascript:alert(1)"}}})
	require.Error(t, err)
	var ve *entity.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "social_links.twitter", ve.Field)
}

/* ───────────────────────────────────────────────────────────────
   Lookups
   ─────────────────────────────────────────────────────────────── */

func TestRegistry_Resolve(t *testing.T) {
	r, err := New(fixture())
	require.NoError(t, err)

	for _, id := range []string{"olahraga", "OLAHRAGA", "sport", " Sport "} {
		ch, err := r.Resolve(id)
		require.NoError(t, err, id)
		assert.Equal(t, "olahraga", ch.ID)
	}

	_, err = r.Resolve("unknown")
	assert.ErrorIs(t, err, ErrChannelNotFound)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestRegistry_ResolveHost(t *testing.T) {
	r, err := New(fixture())
	require.NoError(t, err)

	tests := []struct {
		host   string
		wantID string
	}{
		{"sport.example.com", "olahraga"},
		{"SPORT.example.com:8080", "olahraga"},
		{"nasional.localhost", "nasional"},
		{"gaya", "gaya"},
		{"www.example.com", ""},
		{"", ""},
		{"olahraga.example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			ch, err := r.ResolveHost(tt.host)
			if tt.wantID == "" {
				assert.ErrorIs(t, err, ErrChannelNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, ch.ID)
		})
	}
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	r, err := New(fixture())
	require.NoError(t, err)

	ch, err := r.Resolve("nasional")
	require.NoError(t, err)
	ch.Categories[0] = "mutated"

	again, err := r.Resolve("nasional")
	require.NoError(t, err)
	assert.Equal(t, "Politik", again.Categories[0])
}

func TestRegistry_Has(t *testing.T) {
	r, err := New(fixture())
	require.NoError(t, err)
	assert.True(t, r.Has("gaya"))
	assert.False(t, r.Has("sport"), "Has matches ids only")
	assert.Equal(t, 3, r.Len())
}

/* ───────────────────────────────────────────────────────────────
   Load
   ─────────────────────────────────────────────────────────────── */

const yamlChannels = `
channels:
  - id: berita
    name: Berita
    layout: Magazine
    categories: [Politik, Olahraga]
    social_links:
      twitter: https://twitter.com/berita
    keywords: [news, News, berita]
`

const tomlChannels = `
[[channels]]
id = "berita"
name = "Berita"
layout = "Magazine"
categories = ["Politik", "Olahraga"]
keywords = ["news", "News", "berita"]

[channels.social_links]
twitter = "https://twitter.com/berita"
`

func TestLoad_YAMLAndTOMLAgree(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "channels.yaml")
	tomlPath := filepath.Join(dir, "channels.toml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlChannels), 0o600))
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlChannels), 0o600))

	fromYAML, err := Load(yamlPath)
	require.NoError(t, err)
	fromTOML, err := Load(tomlPath)
	require.NoError(t, err)

	want := []entity.Channel{{
		ID:          "berita",
		Subdomain:   "berita",
		Name:        "Berita",
		Layout:      entity.LayoutMagazine,
		Categories:  []string{"Politik", "Olahraga"},
		SocialLinks: entity.SocialLinks{Twitter: "https://twitter.com/berita"},
		Keywords:    []string{"news", "berita"},
	}}
	if diff := cmp.Diff(want, fromYAML.List()); diff != "" {
		t.Errorf("yaml mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, fromTOML.List()); diff != "" {
		t.Errorf("toml mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	jsonPath := filepath.Join(dir, "channels.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{}`), 0o600))
	_, err = Load(jsonPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	badKey := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badKey, []byte("channels:\n  - id: a\n    name: A\n    colour: red\n"), 0o600))
	_, err = Load(badKey)
	assert.Error(t, err, "unknown keys are rejected")

	badTOML := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(badTOML, []byte("[[channels]]\nid = \"a\"\nname = \"A\"\ncolour = \"red\"\n"), 0o600))
	_, err = Load(badTOML)
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	assert.Greater(t, r.Len(), 1)

	ch, err := r.Resolve("sport")
	require.NoError(t, err)
	assert.Equal(t, "olahraga", ch.ID)
	assert.True(t, ch.HasCategory("sepak bola"))
}
