// Package entity defines the core domain entities and validation logic for the portal.
// It contains the fundamental business objects such as Channel and Article, along with
// their validation rules and domain-specific errors.
package entity

import (
	"slices"
	"strings"
	"time"
)

// Status is the publication state of an article.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// ParseStatus converts a raw metadata value into a Status.
// Empty or unknown values are treated as published.
func ParseStatus(raw string) Status {
	if strings.EqualFold(strings.TrimSpace(raw), string(StatusDraft)) {
		return StatusDraft
	}
	return StatusPublished
}

// Article is a single piece of content owned by exactly one channel.
// The pair (ChannelID, Slug) identifies it.
type Article struct {
	ChannelID   string
	Slug        string
	Title       string
	Content     string
	Excerpt     string
	Author      string
	Category    string
	Tags        []string
	Aliases     []string
	Image       string
	ImageAlt    string
	Featured    bool
	Status      Status
	SourceName  string
	PublishedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Key returns the store identity of the article.
func (a *Article) Key() ArticleKey {
	return ArticleKey{ChannelID: a.ChannelID, Slug: a.Slug}
}

// IsPublished reports whether the article is visible to readers.
func (a *Article) IsPublished() bool {
	return a.Status == "" || a.Status == StatusPublished
}

// Clone returns a deep copy so callers can hand out articles without sharing slices.
func (a *Article) Clone() *Article {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Tags = slices.Clone(a.Tags)
	cp.Aliases = slices.Clone(a.Aliases)
	return &cp
}

// SameContent reports whether two articles carry identical mutable fields.
// Timestamps managed by the store (CreatedAt, UpdatedAt) are ignored.
func (a *Article) SameContent(b *Article) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ChannelID == b.ChannelID &&
		a.Slug == b.Slug &&
		a.Title == b.Title &&
		a.Content == b.Content &&
		a.Excerpt == b.Excerpt &&
		a.Author == b.Author &&
		a.Category == b.Category &&
		slices.Equal(a.Tags, b.Tags) &&
		slices.Equal(a.Aliases, b.Aliases) &&
		a.Image == b.Image &&
		a.ImageAlt == b.ImageAlt &&
		a.Featured == b.Featured &&
		a.Status == b.Status &&
		a.SourceName == b.SourceName &&
		a.PublishedAt.Equal(b.PublishedAt)
}

// ArticleKey is the conflict key used by upserts.
type ArticleKey struct {
	ChannelID string
	Slug      string
}

// String renders the key as "channel/slug".
func (k ArticleKey) String() string {
	return k.ChannelID + "/" + k.Slug
}

// SortByPublishedDesc orders articles newest first. Ties are broken by slug so
// listings are stable across stores.
func SortByPublishedDesc(articles []*Article) {
	slices.SortStableFunc(articles, func(a, b *Article) int {
		if c := b.PublishedAt.Compare(a.PublishedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
}
