package categorizer

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/expense-import/internal/logging"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClassifier asks Google Gemini for a category.
type GeminiClassifier struct {
	client *genai.Client
	model  contentGenerator
	logger logging.Logger
}

// NewGeminiClassifier connects to the Gemini API.
func NewGeminiClassifier(ctx context.Context, apiKey, model string, logger logging.Logger) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is not set")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = logging.Discard()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	generative := client.GenerativeModel(model)
	generative.SetTemperature(0)

	return &GeminiClassifier{client: client, model: generative, logger: logger}, nil
}

func (c *GeminiClassifier) ClassifyExternal(ctx context.Context, description, vendor string, categories []string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(buildPrompt(description, vendor, categories)))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from Gemini API")
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			reply.WriteString(string(text))
		}
	}

	answer := parseAnswer(reply.String(), categories)
	c.logger.Debug("Gemini answered",
		logging.F(logging.FieldOperation, "gemini_categorization"),
		logging.F("ai_category", answer))
	return answer, nil
}

// Close releases the underlying client.
func (c *GeminiClassifier) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
