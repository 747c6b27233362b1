package categorizer

import (
	"context"
	"fmt"
	"strings"
)

// ExternalClassifier asks an external service for a category. The answer
// must be one of categories; anything else is rejected by AIStage.
type ExternalClassifier interface {
	ClassifyExternal(ctx context.Context, description, vendor string, categories []string) (string, error)
}

// ExternalClassifierFunc adapts a function to ExternalClassifier.
type ExternalClassifierFunc func(ctx context.Context, description, vendor string, categories []string) (string, error)

func (f ExternalClassifierFunc) ClassifyExternal(ctx context.Context, description, vendor string, categories []string) (string, error) {
	return f(ctx, description, vendor, categories)
}

// buildPrompt renders the request shared by every provider.
func buildPrompt(description, vendor string, categories []string) string {
	return fmt.Sprintf(`Categorize the following bank transaction.
Description: %s
Vendor: %s

Assign it to exactly one of these categories:
%s

Respond with a single line in this format:
Category: [Selected Category Name]
If none fits, respond with "Category: none".`,
		description, vendor, strings.Join(categories, ", "))
}

// parseAnswer extracts the category from a model reply. It accepts a
// "Category:" line, or a bare reply naming one of the categories.
func parseAnswer(reply string, categories []string) string {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "Category:"); ok {
			answer := strings.Trim(strings.TrimSpace(rest), `"'[].`)
			if strings.EqualFold(answer, "none") {
				return ""
			}
			return answer
		}
	}
	trimmed := strings.Trim(strings.TrimSpace(reply), `"'.`)
	for _, c := range categories {
		if strings.EqualFold(trimmed, c) {
			return c
		}
	}
	return ""
}
