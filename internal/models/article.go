// Package models defines the data structures shared across finfeed.
package models

import "strings"

// Display fallbacks for fields a provider did not supply.
const (
	UnknownSource = "Unknown source"
	UnknownDate   = "Unknown date"
	NoURL         = "No URL"
)

// Article is the canonical article shape shared by every news provider.
// Optional fields are pointers so values absent upstream serialize as
// JSON null rather than empty strings.
type Article struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
	URL         *string `json:"url"`
	SourceName  *string `json:"source_name"`
	PublishedAt *string `json:"published_at"`
}

// Text renders the article as a plain-text block for display and for
// summarization prompts.
func (a *Article) Text() string {
	parts := []string{
		"Title: " + a.Title,
		"Source: " + orElse(a.SourceName, UnknownSource),
		"Date: " + orElse(a.PublishedAt, UnknownDate),
		"URL: " + orElse(a.URL, NoURL),
	}

	if a.Description != nil && *a.Description != "" {
		parts = append(parts, "Description: "+*a.Description)
	}

	if a.Content != nil && *a.Content != "" {
		parts = append(parts, "Content: "+*a.Content)
	}

	return strings.Join(parts, "\n")
}

func orElse(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}

	return *s
}
