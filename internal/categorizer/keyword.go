package categorizer

import (
	"context"

	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/textutils"
)

// Confidences of heuristic matches.
const (
	StatementCategoryConfidence  = 70
	VendorKeywordConfidence      = 75
	DescriptionKeywordConfidence = 65
)

// KeywordField selects which draft text a KeywordStage reads.
type KeywordField int

const (
	KeywordVendor KeywordField = iota
	KeywordDescription
)

// KeywordStage matches the static keyword table against one draft field.
type KeywordStage struct {
	table      []models.KeywordRule
	field      KeywordField
	confidence int
	logger     logging.Logger
}

// NewKeywordStage builds a stage over table; nil, or a table holding only
// tags, uses DefaultKeywordTable.
func NewKeywordStage(table *models.KeywordTable, field KeywordField, logger logging.Logger) *KeywordStage {
	if table == nil || len(table.Rules) == 0 {
		table = &DefaultKeywordTable
	}
	if logger == nil {
		logger = logging.Discard()
	}
	rules := make([]models.KeywordRule, 0, len(table.Rules))
	for _, r := range table.Rules {
		rules = append(rules, models.KeywordRule{
			Keywords: normalizePhrases(r.Keywords),
			Category: r.Category,
			Fallback: r.Fallback,
		})
	}
	confidence := VendorKeywordConfidence
	if field == KeywordDescription {
		confidence = DescriptionKeywordConfidence
	}
	return &KeywordStage{table: rules, field: field, confidence: confidence, logger: logger}
}

func (s *KeywordStage) Name() string {
	if s.field == KeywordVendor {
		return "VendorKeyword"
	}
	return "DescriptionKeyword"
}

func (s *KeywordStage) Classify(_ context.Context, in *Input) (Outcome, error) {
	text := in.Draft.VendorKey
	if s.field == KeywordDescription {
		text = textutils.Normalize(in.Draft.Description)
	}
	if text == "" {
		return NoMatch(), nil
	}

	for _, rule := range s.table {
		keyword, ok := containsAny(rule.Keywords, text)
		if !ok {
			continue
		}
		category := in.Categories.Pick(rule.Category, rule.Fallback)
		if category == "" {
			continue
		}
		s.logger.Debug("Keyword matched",
			logging.F(logging.FieldStage, s.Name()),
			logging.F("keyword", keyword),
			logging.F(logging.FieldCategory, category))
		return Match(category, models.SourceKeyword, s.confidence), nil
	}
	return NoMatch(), nil
}

// StatementCategoryStage trusts the statement's own category column when it
// names, directly or through a legacy alias, one of the owner's categories.
type StatementCategoryStage struct{}

func (StatementCategoryStage) Name() string {
	return "StatementCategory"
}

func (StatementCategoryStage) Classify(_ context.Context, in *Input) (Outcome, error) {
	mapped := MapStatementCategory(in.Draft.RawCategory)
	if mapped == "" {
		return NoMatch(), nil
	}
	category := in.Categories.Pick(mapped)
	if category == "" {
		return NoMatch(), nil
	}
	return Match(category, models.SourceKeyword, StatementCategoryConfidence), nil
}

// PersonalFlagger marks rows whose text names a personal expense.
type PersonalFlagger struct {
	keywords []string
}

// NewPersonalFlagger builds a flagger; nil uses DefaultPersonalKeywords.
func NewPersonalFlagger(keywords []string) *PersonalFlagger {
	if keywords == nil {
		keywords = DefaultPersonalKeywords
	}
	return &PersonalFlagger{keywords: normalizePhrases(keywords)}
}

// IsPersonal reports whether the draft is a personal expense, independently
// of its category. A final category of Personal always is.
func (f *PersonalFlagger) IsPersonal(d models.Draft, category string) bool {
	if category != "" && textutils.Fold(category) == textutils.Fold(models.CategoryPersonal) {
		return true
	}
	_, ok := containsAny(f.keywords, textutils.Normalize(d.Description), d.VendorKey)
	return ok
}

// Tagger labels rows from the tag table.
type Tagger struct {
	rules []models.TagRule
}

// NewTagger builds a tagger; an empty table uses DefaultTagRules.
func NewTagger(rules []models.TagRule) *Tagger {
	if len(rules) == 0 {
		rules = DefaultTagRules
	}
	normalized := make([]models.TagRule, 0, len(rules))
	for _, r := range rules {
		keyword := textutils.Normalize(r.Keyword)
		if keyword == "" || r.Tag == "" {
			continue
		}
		normalized = append(normalized, models.TagRule{Keyword: keyword, Tag: r.Tag})
	}
	return &Tagger{rules: normalized}
}

// Tags returns the distinct tags whose keyword occurs in the description, in
// table order, or nil.
func (t *Tagger) Tags(d models.Draft) []string {
	text := textutils.Normalize(d.Description)
	var tags []string
	seen := make(map[string]struct{})
	for _, r := range t.rules {
		if _, dup := seen[r.Tag]; dup || !textutils.ContainsPhrase(text, r.Keyword) {
			continue
		}
		seen[r.Tag] = struct{}{}
		tags = append(tags, r.Tag)
	}
	return tags
}
