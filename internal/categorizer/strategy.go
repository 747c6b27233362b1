package categorizer

import (
	"context"

	"fjacquet/expense-import/internal/models"
)

// Input is one row to classify together with the owner's categories.
type Input struct {
	Owner      models.OwnerID
	Draft      models.Draft
	Categories models.CategorySet
}

// Outcome is the result of one stage: either a match or NoMatch.
type Outcome struct {
	Matched    bool
	Category   string
	Source     models.Source
	Confidence int
	Transfer   bool
}

// Match builds a matching outcome.
func Match(category string, source models.Source, confidence int) Outcome {
	return Outcome{Matched: true, Category: category, Source: source, Confidence: confidence}
}

// NoMatch is the outcome of a stage that does not apply.
func NoMatch() Outcome {
	return Outcome{}
}

// Stage is one step of the classification pipeline. Stages run in order and
// the first match wins.
type Stage interface {
	// Classify returns a match, NoMatch, or an error. An error is logged by
	// the pipeline and treated as NoMatch.
	Classify(ctx context.Context, in *Input) (Outcome, error)

	// Name identifies the stage in logs and traces.
	Name() string
}
