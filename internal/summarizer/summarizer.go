// Package summarizer turns a batch of news articles into a structured
// summary using an OpenAI chat model.
package summarizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"finfeed/internal/logger"
	"finfeed/internal/models"
)

// Summarizer errors.
var (
	ErrMissingAPIKey = errors.New("missing API key")
	ErrEmptyResponse = errors.New("no response choices from model")
)

// systemPrompt frames the model as an analyst for every summary request.
const systemPrompt = "You are a financial analyst tasked with preprocessing and summarizing news articles about a stock. Extract key information and provide reasoned insights."

// promptTemplate wraps the article text with the output contract. The model
// is asked for strict JSON matching models.Summary.
const promptTemplate = `Summarize and reason out the key information from the following news articles about the stock:

%s

Output your analysis in strict JSON format with the following structure:
{
  "summary": "The overall summary of the articles",
  "key_points": ["Point 1", "Point 2", "Point 3"],
  "sentiment": "positive/negative/neutral",
  "potential_impact": "Description of potential market impact"
}

Ensure your response is valid JSON without any markdown formatting or extra text.`

// ChatCompleter produces one chat completion for a system/user prompt pair.
type ChatCompleter interface {
	Complete(system, user string) (string, error)
}

// Summarizer generates article summaries through a ChatCompleter.
type Summarizer struct {
	completer ChatCompleter
	logger    *logger.Logger
}

// NewSummarizer creates a summarizer backed by the given completer.
func NewSummarizer(completer ChatCompleter, log *logger.Logger) *Summarizer {
	return &Summarizer{
		completer: completer,
		logger:    log,
	}
}

// Summarize sends the article text to the model and parses the reply into a
// Summary. A reply that is not valid JSON, even after stripping markdown
// fences, yields the fallback summary carrying the reply verbatim rather
// than an error.
func (s *Summarizer) Summarize(content string) (*models.Summary, error) {
	reply, err := s.completer.Complete(systemPrompt, fmt.Sprintf(promptTemplate, content))
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary: %w", err)
	}

	cleaned := cleanJSONReply(reply)

	var summary models.Summary
	if err := json.Unmarshal([]byte(cleaned), &summary); err != nil {
		if s.logger != nil {
			s.logger.Warn("Model reply was not valid JSON, returning fallback summary", "error", err)
		}

		return fallbackSummary(cleaned), nil
	}

	return &summary, nil
}

// cleanJSONReply strips the markdown code fences models sometimes wrap
// around JSON output.
func cleanJSONReply(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	return strings.TrimSpace(content)
}

// fallbackSummary is returned when the model output could not be parsed.
func fallbackSummary(raw string) *models.Summary {
	return &models.Summary{
		Summary:         "Error parsing model output",
		KeyPoints:       []string{"Error in processing articles"},
		Sentiment:       "neutral",
		PotentialImpact: "Unable to analyze potential impact due to processing error",
		RawResponse:     raw,
	}
}
