package news

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"finfeed/internal/models"
	"finfeed/internal/normalizer"
)

// DefaultNewsAPIBaseURL is the production NewsAPI endpoint.
const DefaultNewsAPIBaseURL = "https://newsapi.org"

// DefaultNewsAPILimit caps results when FetchOptions leaves Limit unset.
const DefaultNewsAPILimit = 5

// Ensure NewsAPIClient implements Provider.
var _ Provider = (*NewsAPIClient)(nil)

// NewsAPIClient fetches articles from the NewsAPI /v2/everything endpoint.
type NewsAPIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewNewsAPIClient creates a NewsAPI client for the production endpoint.
func NewNewsAPIClient(apiKey string) *NewsAPIClient {
	return NewNewsAPIClientWithBaseURL(apiKey, DefaultNewsAPIBaseURL)
}

// NewNewsAPIClientWithBaseURL creates a NewsAPI client against a custom
// endpoint.
func NewNewsAPIClientWithBaseURL(apiKey, baseURL string) *NewsAPIClient {
	return &NewsAPIClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Provider.
func (c *NewsAPIClient) Name() string {
	return "newsapi"
}

// Fetch retrieves the most recent English articles matching query, sorted by
// publication date. Results are normalized; the second return value is the
// untouched response body.
func (c *NewsAPIClient) Fetch(query string, opts FetchOptions) ([]models.Article, json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, nil, fmt.Errorf("%w: set the NEWS_API_KEY environment variable", ErrMissingAPIKey)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultNewsAPILimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("apiKey", c.apiKey)

	body, status, err := fetchBody(c.httpClient, c.baseURL+"/v2/everything?"+params.Encode())
	if err != nil {
		return nil, nil, err
	}

	if status != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, status, newsAPIErrorMessage(body))
	}

	records := normalizer.ExtractRecords(body)
	articles := normalizer.NormalizeAll(records, normalizer.SourceNewsAPI)

	return articles, body, nil
}

// newsAPIErrorMessage extracts the upstream error text from an error body.
func newsAPIErrorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}

	return string(body)
}
