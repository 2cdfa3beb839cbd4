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
	"finfeed/internal/models"
)

// Top-level slot names in processed documents.
const (
	slotCompany      = "company"
	slotArticleCount = "article_count"
	slotArticles     = "articles"
)

// ArticleBatch is the output of one processing run for a company.
type ArticleBatch struct {
	Company      string           `json:"company"`
	ArticleCount int              `json:"article_count"`
	Timestamp    string           `json:"timestamp"`
	Articles     []models.Article `json:"articles"`
}

// ProcessedSnapshot is one superseded state in a processed document's
// history log.
type ProcessedSnapshot struct {
	Company      string           `json:"company"`
	ArticleCount int              `json:"article_count"`
	Timestamp    string           `json:"timestamp"`
	Articles     []models.Article `json:"articles"`
}

// ProcessedDocument is the stored processed-article document for one company.
type ProcessedDocument struct {
	Company      string              `json:"company"`
	ArticleCount int                 `json:"article_count"`
	Timestamp    string              `json:"timestamp"`
	Articles     []models.Article    `json:"articles"`
	History      []ProcessedSnapshot `json:"history,omitempty"`
}

// ProcessedStore persists processed article batches, one JSON document per
// company, named UPPERCASE(company).json unless an explicit path is given.
type ProcessedStore struct {
	dir    string
	logger *logger.Logger
}

// NewProcessedStore creates a processed store rooted at dir. An empty dir
// selects data/processed under the current working directory.
func NewProcessedStore(dir string, log *logger.Logger) *ProcessedStore {
	if dir == "" {
		dir = filepath.Join("data", "processed")
	}

	return &ProcessedStore{
		dir:    dir,
		logger: log,
	}
}

// Dir returns the directory the store reads and writes.
func (s *ProcessedStore) Dir() string {
	return s.dir
}

// Path returns the default document path for a company.
func (s *ProcessedStore) Path(company string) string {
	return filepath.Join(s.dir, strings.ToUpper(company)+".json")
}

// Merge folds batch into the processed document at path and returns the
// path. An empty path selects the default location for the batch's company.
// A legacy document that predates the history log has its state moved there,
// with the batch's company standing in when the document never recorded one.
func (s *ProcessedStore) Merge(path string, batch *ArticleBatch) (string, error) {
	if path == "" {
		path = s.Path(batch.Company)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create processed data directory: %w", err)
		}
	}

	timestamp := batch.Timestamp
	if timestamp == "" {
		timestamp = time.Now().Format(time.RFC3339)
	}

	articles := batch.Articles
	if articles == nil {
		articles = []models.Article{}
	}

	articlesJSON, err := json.Marshal(articles)
	if err != nil {
		return "", fmt.Errorf("failed to encode articles: %w", err)
	}

	countJSON, err := json.Marshal(batch.ArticleCount)
	if err != nil {
		return "", fmt.Errorf("failed to encode article count: %w", err)
	}

	companyJSON := mustMarshal(batch.Company)

	engine := NewEngine(
		[]Slot{
			{Name: slotCompany, Default: companyJSON},
			{Name: slotArticleCount, Default: json.RawMessage(`0`)},
			{Name: slotArticles, Default: json.RawMessage(`[]`)},
		},
		nil,
		s.logger,
	)

	update := map[string]json.RawMessage{
		slotCompany:      companyJSON,
		slotArticleCount: countJSON,
		slotArticles:     articlesJSON,
	}

	return engine.Merge(path, timestamp, update)
}

// Load reads the stored processed document for company. It returns
// ErrNotFound when no document exists.
func (s *ProcessedStore) Load(company string) (*ProcessedDocument, error) {
	path := s.Path(company)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no processed data for %s at %s", ErrNotFound, company, path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read processed data: %w", err)
	}

	var doc ProcessedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse processed data for %s: %w", company, err)
	}

	return &doc, nil
}
