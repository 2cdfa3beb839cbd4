// Package normalizer converts provider-specific article records into the
// canonical Article shape.
package normalizer

import (
	"encoding/json"

	"finfeed/internal/models"
)

// DefaultTitle replaces a title that is missing or not a string.
const DefaultTitle = "No title"

// defaultGNewsSource names GNews articles whose source is missing.
const defaultGNewsSource = "Unknown"

// SourceKind identifies which provider's field conventions a record uses.
type SourceKind int

// Supported record formats.
const (
	SourceNewsAPI SourceKind = iota
	SourceGNews
)

// Normalize converts one provider record into the canonical Article. It is
// total: a field that is missing or carries an unexpected type becomes its
// documented default, never an error. Callers cannot tell afterwards which
// provider a normalized article came from.
func Normalize(record map[string]interface{}, kind SourceKind) models.Article {
	article := models.Article{
		Title:       DefaultTitle,
		Description: stringField(record, "description"),
		Content:     stringField(record, "content"),
		URL:         stringField(record, "url"),
		PublishedAt: stringField(record, "publishedAt"),
		SourceName:  sourceName(record, kind),
	}

	if title, ok := record["title"].(string); ok {
		article.Title = title
	}

	return article
}

// NormalizeAll converts a list of provider records, preserving order.
func NormalizeAll(records []map[string]interface{}, kind SourceKind) []models.Article {
	articles := make([]models.Article, len(records))
	for i, record := range records {
		articles[i] = Normalize(record, kind)
	}

	return articles
}

// ExtractRecords pulls the articles array out of a raw provider response
// payload. A payload without a well-formed articles list yields nil, as do
// list elements that are not objects.
func ExtractRecords(payload []byte) []map[string]interface{} {
	var parsed struct {
		Articles []interface{} `json:"articles"`
	}

	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil
	}

	var records []map[string]interface{}

	for _, item := range parsed.Articles {
		if record, ok := item.(map[string]interface{}); ok {
			records = append(records, record)
		}
	}

	return records
}

// sourceName flattens the record's nested source object into a plain name.
// GNews articles always end up with a source name, defaulting to "Unknown";
// NewsAPI articles keep a null source when the API offered none.
func sourceName(record map[string]interface{}, kind SourceKind) *string {
	if source, ok := record["source"].(map[string]interface{}); ok {
		if name, ok := source["name"].(string); ok {
			return &name
		}
	}

	if kind == SourceGNews {
		name := defaultGNewsSource
		return &name
	}

	return nil
}

// stringField returns the record's value for key when it is a string.
func stringField(record map[string]interface{}, key string) *string {
	if value, ok := record[key].(string); ok {
		return &value
	}

	return nil
}
