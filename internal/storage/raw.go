package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finfeed/internal/logger"
)

// Top-level slot names in raw documents, one per news provider.
const (
	slotNewsAPI = "newsapi"
	slotGNews   = "gnews"
)

// emptyObject fills a provider slot that has never received a response.
var emptyObject = json.RawMessage(`{}`)

// RawSnapshot is one superseded state in a raw document's history log.
type RawSnapshot struct {
	Timestamp string          `json:"timestamp"`
	NewsAPI   json.RawMessage `json:"newsapi"`
	GNews     json.RawMessage `json:"gnews"`
}

// RawDocument is the stored raw-response document for one stock symbol.
// Provider payloads are kept opaque; the store never inspects them.
type RawDocument struct {
	Timestamp string          `json:"timestamp"`
	Stock     string          `json:"stock"`
	NewsAPI   json.RawMessage `json:"newsapi"`
	GNews     json.RawMessage `json:"gnews"`
	History   []RawSnapshot   `json:"history,omitempty"`
}

// RawStore persists raw provider responses, one JSON document per stock
// symbol, named UPPERCASE(symbol).json.
type RawStore struct {
	dir    string
	logger *logger.Logger
}

// NewRawStore creates a raw store rooted at dir. An empty dir selects
// data/raw_data under the current working directory.
func NewRawStore(dir string, log *logger.Logger) *RawStore {
	if dir == "" {
		dir = filepath.Join("data", "raw_data")
	}

	return &RawStore{
		dir:    dir,
		logger: log,
	}
}

// Dir returns the directory the store reads and writes.
func (s *RawStore) Dir() string {
	return s.dir
}

// Path returns the document path for a stock symbol.
func (s *RawStore) Path(symbol string) string {
	return filepath.Join(s.dir, strings.ToUpper(symbol)+".json")
}

// Merge folds the given provider responses into the document for symbol and
// returns the document path. A nil response leaves that provider's stored
// value untouched; on first write it defaults to an empty object.
func (s *RawStore) Merge(symbol string, newsapiResp, gnewsResp json.RawMessage) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create raw data directory: %w", err)
	}

	engine := NewEngine(
		[]Slot{
			{Name: slotNewsAPI, Default: emptyObject},
			{Name: slotGNews, Default: emptyObject},
		},
		map[string]json.RawMessage{
			"stock": mustMarshal(strings.ToUpper(symbol)),
		},
		s.logger,
	)

	update := make(map[string]json.RawMessage, 2)
	if newsapiResp != nil {
		update[slotNewsAPI] = newsapiResp
	}

	if gnewsResp != nil {
		update[slotGNews] = gnewsResp
	}

	return engine.Merge(s.Path(symbol), time.Now().Format(time.RFC3339), update)
}

// Load reads the stored raw document for symbol. It returns ErrNotFound
// when no document exists.
func (s *RawStore) Load(symbol string) (*RawDocument, error) {
	path := s.Path(symbol)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no raw data for %s at %s", ErrNotFound, symbol, path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read raw data: %w", err)
	}

	var doc RawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse raw data for %s: %w", symbol, err)
	}

	return &doc, nil
}
