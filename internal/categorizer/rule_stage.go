package categorizer

import (
	"context"
	"errors"
	"time"

	"fjacquet/expense-import/internal/learning"
	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/store"
)

// Confidences of learned rule matches.
const (
	VendorRuleConfidence      = 95
	DescriptionRuleConfidence = 90
)

// RuleStage looks up the owner's learned rules for one key type.
type RuleStage struct {
	rules      store.RuleStore
	keyType    models.KeyType
	maxWords   int
	source     models.Source
	confidence int
	now        func() time.Time
	logger     logging.Logger
}

// NewVendorRuleStage matches learned vendor rules on the first maxWords
// words of the vendor.
func NewVendorRuleStage(rules store.RuleStore, maxWords int, logger logging.Logger) *RuleStage {
	if maxWords <= 0 {
		maxWords = learning.DefaultVendorWords
	}
	return newRuleStage(rules, models.KeyTypeVendor, maxWords, models.SourceRuleVendor, VendorRuleConfidence, logger)
}

// NewDescriptionRuleStage matches learned description rules on the first
// maxWords words of the description.
func NewDescriptionRuleStage(rules store.RuleStore, maxWords int, logger logging.Logger) *RuleStage {
	if maxWords <= 0 {
		maxWords = learning.DefaultDescriptionWords
	}
	return newRuleStage(rules, models.KeyTypeDescription, maxWords, models.SourceRuleDescription, DescriptionRuleConfidence, logger)
}

func newRuleStage(rules store.RuleStore, keyType models.KeyType, maxWords int, source models.Source, confidence int, logger logging.Logger) *RuleStage {
	if logger == nil {
		logger = logging.Discard()
	}
	return &RuleStage{
		rules:      rules,
		keyType:    keyType,
		maxWords:   maxWords,
		source:     source,
		confidence: confidence,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *RuleStage) Name() string {
	if s.keyType == models.KeyTypeVendor {
		return "VendorRule"
	}
	return "DescriptionRule"
}

func (s *RuleStage) key(d models.Draft) string {
	if s.keyType == models.KeyTypeVendor {
		return learning.PatternKey(d.Vendor, s.maxWords)
	}
	return learning.PatternKey(d.Description, s.maxWords)
}

func (s *RuleStage) Classify(ctx context.Context, in *Input) (Outcome, error) {
	key := s.key(in.Draft)
	if key == "" {
		return NoMatch(), nil
	}

	rule, err := s.rules.MatchRule(ctx, in.Owner, s.keyType, key)
	if errors.Is(err, store.ErrNotFound) {
		return NoMatch(), nil
	}
	if err != nil {
		return NoMatch(), err
	}

	category := in.Categories.Pick(rule.Category)
	if category == "" {
		s.logger.Debug("Learned rule targets a missing category",
			logging.F(logging.FieldPattern, rule.Pattern),
			logging.F(logging.FieldCategory, rule.Category))
		return NoMatch(), nil
	}

	if err := s.rules.TouchRule(ctx, in.Owner, rule.ID, s.now()); err != nil {
		s.logger.WithError(err).Warn("Failed to record rule hit", logging.F(logging.FieldPattern, rule.Pattern))
	}
	return Match(category, s.source, s.confidence), nil
}
