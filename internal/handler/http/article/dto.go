// Package article serves the channel-scoped article query API. Every route
// exists twice: under /channels/{channel}/ and at the root, where the
// channel comes from the request host's subdomain.
package article

import (
	"time"

	"newsportal/internal/domain/entity"
	artUC "newsportal/internal/usecase/article"
)

// DTO is the JSON form of an article. Content is only set on detail responses.
type DTO struct {
	Channel     string    `json:"channel"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content,omitempty"`
	Author      string    `json:"author,omitempty"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	Image       string    `json:"image,omitempty"`
	ImageAlt    string    `json:"image_alt,omitempty"`
	Featured    bool      `json:"featured"`
	Status      string    `json:"status"`
	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toDTO(a *entity.Article, withContent bool) DTO {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	d := DTO{
		Channel:     a.ChannelID,
		Slug:        a.Slug,
		Title:       a.Title,
		Excerpt:     a.Excerpt,
		Author:      a.Author,
		Category:    a.Category,
		Tags:        tags,
		Image:       a.Image,
		ImageAlt:    a.ImageAlt,
		Featured:    a.Featured,
		Status:      string(a.Status),
		PublishedAt: a.PublishedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if withContent {
		d.Content = a.Content
	}
	return d
}

func summary(a *entity.Article) DTO { return toDTO(a, false) }

func toDTOs(articles []*entity.Article) []DTO {
	out := make([]DTO, len(articles))
	for i, a := range articles {
		out[i] = summary(a)
	}
	return out
}

// DetailDTO is returned by the single-article routes.
type DetailDTO struct {
	DTO
	// Canonical is set when the requested slug was an alias.
	Canonical string `json:"canonical,omitempty"`
}

// CategoryDTO is one entry of the categories route.
type CategoryDTO = artUC.CategoryCount
