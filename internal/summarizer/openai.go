package summarizer

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is used when the configuration does not name one.
const DefaultModel = "gpt-4o"

// summaryTemperature is the sampling temperature for summary requests.
const summaryTemperature = 0.5

// Ensure OpenAIChatCompleter implements ChatCompleter.
var _ ChatCompleter = (*OpenAIChatCompleter)(nil)

// OpenAIChatCompleter calls the OpenAI chat completions API.
type OpenAIChatCompleter struct {
	client *openai.Client
	model  string
	apiKey string
}

// NewOpenAIChatCompleter creates a completer for the given model. An empty
// model selects DefaultModel.
func NewOpenAIChatCompleter(apiKey, model string) *OpenAIChatCompleter {
	if model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &OpenAIChatCompleter{
		client: &client,
		model:  model,
		apiKey: apiKey,
	}
}

// Complete implements ChatCompleter. A missing API key fails before any
// network call is attempted.
func (c *OpenAIChatCompleter) Complete(system, user string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: set the OPENAI_API_KEY environment variable", ErrMissingAPIKey)
	}

	resp, err := c.client.Chat.Completions.New(context.Background(), openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(summaryTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}
