package categorizer

import (
	"context"
	"fmt"

	"fjacquet/expense-import/internal/logging"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4oMini

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClassifier asks an OpenAI chat model for a category.
type OpenAIClassifier struct {
	client chatCompleter
	model  string
	logger logging.Logger
}

// NewOpenAIClassifier creates a classifier for the OpenAI API.
func NewOpenAIClassifier(apiKey, model string, logger logging.Logger) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key is not set")
	}
	return newOpenAIClassifier(openai.NewClient(apiKey), model, logger), nil
}

func newOpenAIClassifier(client chatCompleter, model string, logger logging.Logger) *OpenAIClassifier {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &OpenAIClassifier{client: client, model: model, logger: logger}
}

func (c *OpenAIClassifier) ClassifyExternal(ctx context.Context, description, vendor string, categories []string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You categorize household bank transactions."},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(description, vendor, categories)},
		},
		Temperature: 0,
		MaxTokens:   20,
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI API")
	}

	answer := parseAnswer(resp.Choices[0].Message.Content, categories)
	c.logger.Debug("OpenAI answered",
		logging.F(logging.FieldOperation, "openai_categorization"),
		logging.F("ai_category", answer))
	return answer, nil
}
