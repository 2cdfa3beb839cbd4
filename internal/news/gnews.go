package news

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finfeed/internal/models"
	"finfeed/internal/normalizer"
)

// DefaultGNewsBaseURL is the production GNews endpoint.
const DefaultGNewsBaseURL = "https://gnews.io"

// DefaultGNewsLimit caps results when FetchOptions leaves Limit unset.
const DefaultGNewsLimit = 10

// GNews search defaults.
const (
	defaultGNewsLanguage = "en"
	defaultGNewsCountry  = "us"
)

// Ensure GNewsClient implements Provider.
var _ Provider = (*GNewsClient)(nil)

// GNewsClient fetches articles from the GNews /api/v4/search endpoint.
type GNewsClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewGNewsClient creates a GNews client for the production endpoint.
func NewGNewsClient(apiKey string) *GNewsClient {
	return NewGNewsClientWithBaseURL(apiKey, DefaultGNewsBaseURL)
}

// NewGNewsClientWithBaseURL creates a GNews client against a custom endpoint.
func NewGNewsClientWithBaseURL(apiKey, baseURL string) *GNewsClient {
	return &GNewsClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Provider.
func (c *GNewsClient) Name() string {
	return "gnews"
}

// Fetch retrieves articles matching query, filtered by the language and
// country in opts (defaults "en"/"us"). Results are normalized; the second
// return value is the untouched response body.
func (c *GNewsClient) Fetch(query string, opts FetchOptions) ([]models.Article, json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, nil, fmt.Errorf("%w: set the GNEWS_API_KEY environment variable", ErrMissingAPIKey)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultGNewsLimit
	}

	language := opts.Language
	if language == "" {
		language = defaultGNewsLanguage
	}

	country := opts.Country
	if country == "" {
		country = defaultGNewsCountry
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("lang", language)
	params.Set("country", country)
	params.Set("max", strconv.Itoa(limit))
	params.Set("apikey", c.apiKey)

	body, status, err := fetchBody(c.httpClient, c.baseURL+"/api/v4/search?"+params.Encode())
	if err != nil {
		return nil, nil, err
	}

	if status != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, status, gnewsErrorMessage(body))
	}

	records := normalizer.ExtractRecords(body)
	articles := normalizer.NormalizeAll(records, normalizer.SourceGNews)

	return articles, body, nil
}

// gnewsErrorMessage extracts the upstream error text from an error body.
// GNews reports failures as an errors list; some responses carry a single
// message instead.
func gnewsErrorMessage(body []byte) string {
	var payload struct {
		Errors  []string `json:"errors"`
		Message string   `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Errors) > 0 {
			return strings.Join(payload.Errors, "; ")
		}

		if payload.Message != "" {
			return payload.Message
		}
	}

	return string(body)
}
