package entity

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// maxURLLength defines the maximum allowed length for URLs.
const maxURLLength = 2048

// maxSlugLength bounds slugs so they fit comfortably into URL paths and indexes.
const maxSlugLength = 200

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateSlug checks that s is a canonical slug: lowercase alphanumerics
// separated by single hyphens.
func ValidateSlug(field, s string) error {
	if s == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	if len(s) > maxSlugLength {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must not exceed %d characters", maxSlugLength)}
	}
	if !slugPattern.MatchString(s) {
		return &ValidationError{Field: field, Message: "must contain only a-z, 0-9 and single hyphens"}
	}
	return nil
}

// ValidateURL validates the format of an outbound link such as a social profile.
// Only http and https URLs with a host are accepted.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}
	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}
	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}
	return nil
}

// Validate checks channel identity fields and social links.
func (c *Channel) Validate() error {
	if err := ValidateSlug("id", c.ID); err != nil {
		return err
	}
	if c.Subdomain != "" {
		if err := ValidateSlug("subdomain", strings.ToLower(c.Subdomain)); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	for field, link := range map[string]string{
		"social_links.facebook":  c.SocialLinks.Facebook,
		"social_links.twitter":   c.SocialLinks.Twitter,
		"social_links.instagram": c.SocialLinks.Instagram,
	} {
		if link == "" {
			continue
		}
		if err := ValidateURL(link); err != nil {
			return &ValidationError{Field: field, Message: "must be a valid http(s) URL"}
		}
	}
	return nil
}

// Validate checks that an article is storable.
func (a *Article) Validate() error {
	if err := ValidateSlug("channel_id", a.ChannelID); err != nil {
		return err
	}
	if err := ValidateSlug("slug", a.Slug); err != nil {
		return err
	}
	if a.Status != "" && a.Status != StatusDraft && a.Status != StatusPublished {
		return &ValidationError{Field: "status", Message: "must be draft or published"}
	}
	return nil
}
