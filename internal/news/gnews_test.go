package news

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

const gnewsPayload = `{
  "totalArticles": 2,
  "articles": [
    {
      "title": "TSLA opens new plant",
      "description": "Production begins next quarter.",
      "content": "Full text.",
      "url": "https://example.com/tsla-plant",
      "publishedAt": "2024-05-02T09:00:00Z",
      "source": {"name": "Example Wire", "url": "https://examplewire.com"}
    },
    {
      "title": "Analysts weigh in",
      "url": "https://example.com/analysts",
      "publishedAt": "2024-05-02T08:00:00Z"
    }
  ]
}`

func TestGNewsClient_Fetch(t *testing.T) {
	var gotPath string

	var gotQuery url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(gnewsPayload)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := NewGNewsClientWithBaseURL("test-key", server.URL)

	articles, raw, err := client.Fetch("TSLA", FetchOptions{Limit: 2, Language: "fr", Country: "fr"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if gotPath != "/api/v4/search" {
		t.Errorf("Expected path /api/v4/search, got %s", gotPath)
	}

	params := map[string]string{
		"q":       "TSLA",
		"lang":    "fr",
		"country": "fr",
		"max":     "2",
		"apikey":  "test-key",
	}

	for key, want := range params {
		if got := gotQuery.Get(key); got != want {
			t.Errorf("Expected query param %s=%s, got %s", key, want, got)
		}
	}

	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}

	if articles[0].SourceName == nil || *articles[0].SourceName != "Example Wire" {
		t.Errorf("Unexpected first source: %v", articles[0].SourceName)
	}

	// GNews articles always carry a source name.
	if articles[1].SourceName == nil || *articles[1].SourceName != "Unknown" {
		t.Errorf("Expected source 'Unknown' for second article, got %v", articles[1].SourceName)
	}

	if string(raw) != gnewsPayload {
		t.Error("Expected raw response to be the verbatim body")
	}
}

func TestGNewsClient_Fetch_Defaults(t *testing.T) {
	var gotQuery url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()

		if _, err := w.Write([]byte(`{"totalArticles":0,"articles":[]}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := NewGNewsClientWithBaseURL("test-key", server.URL)

	if _, _, err := client.Fetch("TSLA", FetchOptions{}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	defaults := map[string]string{
		"lang":    "en",
		"country": "us",
		"max":     "10",
	}

	for key, want := range defaults {
		if got := gotQuery.Get(key); got != want {
			t.Errorf("Expected default %s=%s, got %s", key, want, got)
		}
	}
}

func TestGNewsClient_Fetch_MissingKey(t *testing.T) {
	hits := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	client := NewGNewsClientWithBaseURL("", server.URL)

	_, _, err := client.Fetch("TSLA", FetchOptions{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Expected ErrMissingAPIKey, got %v", err)
	}

	if !strings.Contains(err.Error(), "GNEWS_API_KEY") {
		t.Errorf("Expected error to name GNEWS_API_KEY, got: %v", err)
	}

	if hits != 0 {
		t.Errorf("Expected no HTTP requests for missing key, got %d", hits)
	}
}

func TestGNewsClient_Fetch_ErrorsList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)

		if _, err := w.Write([]byte(`{"errors":["Your subscription expired.","Upgrade your plan."]}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := NewGNewsClientWithBaseURL("test-key", server.URL)

	_, _, err := client.Fetch("TSLA", FetchOptions{})
	if !errors.Is(err, ErrUnexpectedStatusCode) {
		t.Fatalf("Expected ErrUnexpectedStatusCode, got %v", err)
	}

	if !strings.Contains(err.Error(), "Your subscription expired.; Upgrade your plan.") {
		t.Errorf("Expected error to join the upstream errors, got: %v", err)
	}
}

func TestGNewsClient_Fetch_MessageFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)

		if _, err := w.Write([]byte(`{"message":"rate limited"}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := NewGNewsClientWithBaseURL("test-key", server.URL)

	_, _, err := client.Fetch("TSLA", FetchOptions{})
	if !errors.Is(err, ErrUnexpectedStatusCode) {
		t.Fatalf("Expected ErrUnexpectedStatusCode, got %v", err)
	}

	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("Expected error to surface the upstream message, got: %v", err)
	}
}

func TestGNewsClient_Name(t *testing.T) {
	if got := NewGNewsClient("key").Name(); got != "gnews" {
		t.Errorf("Expected name 'gnews', got '%s'", got)
	}
}
