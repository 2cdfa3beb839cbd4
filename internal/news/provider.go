// Package news fetches stock-related articles from external news APIs.
package news

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"finfeed/internal/models"
)

// Provider errors.
var (
	ErrMissingAPIKey        = errors.New("missing API key")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrUnknownProvider      = errors.New("unknown provider")
)

// Default request headers.
const (
	userAgent    = "finfeed/1.0"
	acceptHeader = "application/json"
)

// maxResponseBytes caps provider response bodies at 10MB.
const maxResponseBytes = 10 * 1024 * 1024

// FetchOptions carries per-request tuning for a provider fetch. A zero Limit
// falls back to the provider's default; Language and Country are ignored by
// providers that do not support them.
type FetchOptions struct {
	Limit    int
	Language string
	Country  string
}

// Provider fetches articles about a stock from one news API. Fetch returns
// the normalized articles together with the verbatim response body, which
// callers persist untouched.
type Provider interface {
	Name() string
	Fetch(query string, opts FetchOptions) ([]models.Article, json.RawMessage, error)
}

// Registry holds the configured providers, preserving registration order.
type Registry struct {
	providers map[string]Provider
	names     []string
}

// NewRegistry creates a registry containing the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.Register(p)
	}

	return r
}

// Register adds a provider under its name, replacing any previous entry.
func (r *Registry) Register(p Provider) {
	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.names = append(r.names, name)
	}

	r.providers[name] = p
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	return p, nil
}

// Names returns the registered provider names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)

	return names
}

// fetchBody performs a GET against url and returns the body and status code.
// The body is returned even for non-200 responses so callers can surface the
// provider's error payload.
func fetchBody(client *http.Client, url string) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	reader := io.LimitReader(resp.Body, maxResponseBytes)

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
