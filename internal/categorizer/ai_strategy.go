package categorizer

import (
	"context"
	"strings"
	"time"

	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"
)

// AIConfidence is the confidence of an external classifier's answer.
const AIConfidence = 40

// DefaultAITimeout bounds one external call.
const DefaultAITimeout = 10 * time.Second

// AIStage is the optional last stage. It asks an ExternalClassifier and
// keeps the answer only if it names one of the owner's categories.
type AIStage struct {
	client  ExternalClassifier
	timeout time.Duration
	logger  logging.Logger
}

// NewAIStage creates the stage. A nil client makes it a no-op.
func NewAIStage(client ExternalClassifier, timeout time.Duration, logger logging.Logger) *AIStage {
	if timeout <= 0 {
		timeout = DefaultAITimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &AIStage{client: client, timeout: timeout, logger: logger}
}

func (s *AIStage) Name() string {
	return "AI"
}

func (s *AIStage) Classify(ctx context.Context, in *Input) (Outcome, error) {
	if s.client == nil || in.Categories.Len() == 0 {
		return NoMatch(), nil
	}
	if strings.TrimSpace(in.Draft.Description) == "" && strings.TrimSpace(in.Draft.Vendor) == "" {
		return NoMatch(), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.client.ClassifyExternal(callCtx, in.Draft.Description, in.Draft.Vendor, in.Categories.Names())
	if err != nil {
		s.logger.WithError(err).Warn("AI categorization failed", logging.F(logging.FieldStage, s.Name()))
		return NoMatch(), nil
	}

	category := in.Categories.Pick(answer)
	if category == "" {
		s.logger.Debug("AI answer rejected",
			logging.F(logging.FieldStage, s.Name()),
			logging.F("ai_category", answer))
		return NoMatch(), nil
	}
	return Match(category, models.SourceAIFallback, AIConfidence), nil
}
