package categorizer

import (
	"fmt"
	"strings"
)

// StageResult is one stage attempt recorded by the pipeline.
type StageResult struct {
	Stage   string
	Outcome Outcome
	Error   error
}

// Trace records every stage attempt of one classification.
type Trace struct {
	Results []StageResult
}

func (t *Trace) add(stage string, outcome Outcome, err error) {
	t.Results = append(t.Results, StageResult{Stage: stage, Outcome: outcome, Error: err})
}

// Winner returns the name of the stage that matched, or "".
func (t Trace) Winner() string {
	for _, r := range t.Results {
		if r.Error == nil && r.Outcome.Matched {
			return r.Stage
		}
	}
	return ""
}

// Errors returns all errors encountered during stage execution.
func (t Trace) Errors() []error {
	var errs []error
	for _, r := range t.Results {
		if r.Error != nil {
			errs = append(errs, fmt.Errorf("%s stage: %w", r.Stage, r.Error))
		}
	}
	return errs
}

// Summary renders the attempts as "stage:status, ...".
func (t Trace) Summary() string {
	parts := make([]string, 0, len(t.Results))
	for _, r := range t.Results {
		status := "no_match"
		switch {
		case r.Error != nil:
			status = "failed"
		case r.Outcome.Matched:
			status = "success"
		}
		parts = append(parts, fmt.Sprintf("%s:%s", r.Stage, status))
	}
	return strings.Join(parts, ", ")
}
