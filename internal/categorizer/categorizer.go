// Package categorizer classifies import drafts through an ordered chain of
// stages:
//  1. transfer detection
//  2. learned vendor rules, then learned description rules
//  3. the statement's own category column
//  4. static keyword heuristics on the vendor, then on the description
//  5. an optional external (AI) classifier
//
// Personal-expense detection and tagging run beside the chain and only set
// flags and labels.
package categorizer

import (
	"context"
	"time"

	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/parsererror"
	"fjacquet/expense-import/internal/store"
)

// Pipeline runs stages in order and stops at the first match.
type Pipeline struct {
	stages  []Stage
	flagger *PersonalFlagger
	tagger  *Tagger
	logger  logging.Logger
}

// NewPipeline creates a pipeline over explicit stages. A nil flagger uses the
// default personal keywords.
func NewPipeline(logger logging.Logger, flagger *PersonalFlagger, stages ...Stage) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}
	if flagger == nil {
		flagger = NewPersonalFlagger(nil)
	}
	return &Pipeline{stages: stages, flagger: flagger, tagger: NewTagger(nil), logger: logger}
}

// WithTagger replaces the default tag table.
func (p *Pipeline) WithTagger(t *Tagger) *Pipeline {
	if t != nil {
		p.tagger = t
	}
	return p
}

// Options configures the standard stage chain.
type Options struct {
	Rules            store.RuleStore
	Keywords         *models.KeywordTable
	VendorWords      int
	DescriptionWords int

	// AI is the external fallback; nil leaves it out of the chain.
	AI        ExternalClassifier
	AITimeout time.Duration
}

// NewDefaultPipeline builds the standard stage chain.
func NewDefaultPipeline(opts Options, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}
	stages := []Stage{NewTransferStage(nil)}
	if opts.Rules != nil {
		stages = append(stages,
			NewVendorRuleStage(opts.Rules, opts.VendorWords, logger),
			NewDescriptionRuleStage(opts.Rules, opts.DescriptionWords, logger),
		)
	}
	stages = append(stages,
		StatementCategoryStage{},
		NewKeywordStage(opts.Keywords, KeywordVendor, logger),
		NewKeywordStage(opts.Keywords, KeywordDescription, logger),
	)
	if opts.AI != nil {
		stages = append(stages, NewAIStage(opts.AI, opts.AITimeout, logger))
	}
	var tags []models.TagRule
	if opts.Keywords != nil {
		tags = opts.Keywords.Tags
	}
	return NewPipeline(logger, nil, stages...).WithTagger(NewTagger(tags))
}

// Stages returns the stage names in evaluation order.
func (p *Pipeline) Stages() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name())
	}
	return names
}

// Classify returns the verdict for one draft. It never fails: stage errors
// are logged and count as no match.
func (p *Pipeline) Classify(ctx context.Context, in Input) models.Classification {
	c, _ := p.ClassifyWithTrace(ctx, in)
	return c
}

// ClassifyWithTrace is Classify that also reports every stage attempt.
func (p *Pipeline) ClassifyWithTrace(ctx context.Context, in Input) (models.Classification, Trace) {
	var trace Trace
	log := p.logger.WithFields(
		logging.F(logging.FieldOwner, in.Owner),
		logging.F(logging.FieldRow, in.Draft.RowIndex),
	)

	result := models.Unclassified()
	for _, stage := range p.stages {
		outcome, err := stage.Classify(ctx, &in)
		if err != nil {
			catErr := &parsererror.CategorizationError{
				Transaction: in.Draft.Description,
				Strategy:    stage.Name(),
				Err:         err,
			}
			log.WithError(catErr).Warn("Classification stage failed", logging.F(logging.FieldStage, stage.Name()))
			trace.add(stage.Name(), NoMatch(), catErr)
			continue
		}
		trace.add(stage.Name(), outcome, nil)
		if !outcome.Matched {
			continue
		}

		result = models.Classification{
			Category:   outcome.Category,
			Confidence: models.IntPtr(outcome.Confidence),
			Source:     outcome.Source,
			IsTransfer: outcome.Transfer,
		}
		break
	}

	if !result.IsTransfer {
		result.IsPersonal = p.flagger.IsPersonal(in.Draft, result.Category)
	}
	result.Tags = p.tagger.Tags(in.Draft)

	log.Debug("Classified row",
		logging.F(logging.FieldCategory, result.Category),
		logging.F(logging.FieldSource, string(result.Source)),
		logging.F("trace", trace.Summary()))
	return result, trace
}
