// Package learning turns user corrections into learned category rules.
package learning

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/store"
	"fjacquet/expense-import/internal/textutils"
)

// Default key lengths, in words.
const (
	DefaultVendorWords      = 4
	DefaultDescriptionWords = 3
)

// minPatternLength is the shortest pattern, in runes, worth learning.
const minPatternLength = 3

// Stoplist holds patterns too generic to become rules on their own.
var Stoplist = map[string]struct{}{
	"shop":        {},
	"store":       {},
	"payment":     {},
	"merci":       {},
	"service":     {},
	"purchase":    {},
	"debit":       {},
	"credit":      {},
	"transaction": {},
	"interest":    {},
}

// SpecialPatterns are kept whole whenever they appear in the text.
var SpecialPatterns = []string{"apple.com/bill"}

func stoplisted(pattern string) bool {
	_, ok := Stoplist[pattern]
	return ok
}

// PatternKey derives the rule key of text: a special pattern when one is
// present, otherwise the longest non-stoplisted prefix of at most maxWords
// normalized words. It returns "" when nothing usable is left.
func PatternKey(text string, maxWords int) string {
	normalized := textutils.Normalize(text)
	if normalized == "" {
		return ""
	}
	for _, special := range SpecialPatterns {
		if strings.Contains(normalized, special) {
			return special
		}
	}

	words := textutils.FirstWords(normalized, maxWords)
	for n := len(words); n > 0; n-- {
		candidate := strings.Join(words[:n], " ")
		if !stoplisted(candidate) {
			return candidate
		}
	}
	return ""
}

// Options configures a Learner.
type Options struct {
	Enabled          bool
	VendorWords      int
	DescriptionWords int
}

// DefaultOptions enables learning with the default key lengths.
func DefaultOptions() Options {
	return Options{Enabled: true, VendorWords: DefaultVendorWords, DescriptionWords: DefaultDescriptionWords}
}

// Learner records corrections as rules.
type Learner struct {
	rules      store.RuleStore
	categories store.CategoryStore
	opts       Options
	logger     logging.Logger
}

// NewLearner creates a Learner. Zero key lengths fall back to the defaults.
func NewLearner(rules store.RuleStore, categories store.CategoryStore, opts Options, logger logging.Logger) *Learner {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.VendorWords <= 0 {
		opts.VendorWords = DefaultVendorWords
	}
	if opts.DescriptionWords <= 0 {
		opts.DescriptionWords = DefaultDescriptionWords
	}
	return &Learner{rules: rules, categories: categories, opts: opts, logger: logger}
}

// Enabled reports whether corrections are recorded at all.
func (l *Learner) Enabled() bool {
	return l.opts.Enabled
}

// VendorKey is the vendor rule key of vendor.
func (l *Learner) VendorKey(vendor string) string {
	return PatternKey(vendor, l.opts.VendorWords)
}

// DescriptionKey is the description rule key of description.
func (l *Learner) DescriptionKey(description string) string {
	return PatternKey(description, l.opts.DescriptionWords)
}

// RecordCorrection stores pattern → category as a rule for owner. Patterns
// that are empty, too short or stoplisted are ignored, as are transfer
// categories and categories the owner does not have. Ignored corrections
// return nil.
func (l *Learner) RecordCorrection(ctx context.Context, owner models.OwnerID, keyType models.KeyType, pattern, category string, source models.RuleSource) error {
	if !l.opts.Enabled {
		return nil
	}
	log := l.logger.WithFields(
		logging.F(logging.FieldOwner, owner),
		logging.F(logging.FieldKeyType, string(keyType)),
		logging.F(logging.FieldCategory, category),
	)

	pattern = textutils.Normalize(pattern)
	if reason := rejectPattern(pattern); reason != "" {
		log.Debug("Correction not learned", logging.F(logging.FieldReason, reason), logging.F(logging.FieldPattern, pattern))
		return nil
	}

	list, err := l.categories.ListCategories(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	set := models.NewCategorySet(list)
	canonical := set.Pick(category)
	switch {
	case canonical == "":
		log.Debug("Correction not learned", logging.F(logging.FieldReason, "unknown_category"))
		return nil
	case set.IsTransferCategory(canonical):
		log.Debug("Correction not learned", logging.F(logging.FieldReason, "transfer_category"))
		return nil
	}

	rule, err := l.rules.UpsertRule(ctx, models.Rule{
		Owner:    owner,
		KeyType:  keyType,
		Pattern:  pattern,
		Category: canonical,
		Source:   source,
	})
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	log.Info("Learned category rule",
		logging.F(logging.FieldPattern, rule.Pattern),
		logging.F("priority", rule.Priority))
	return nil
}

func rejectPattern(pattern string) string {
	switch {
	case pattern == "":
		return "empty_pattern"
	case utf8.RuneCountInString(pattern) < minPatternLength:
		return "short_pattern"
	case stoplisted(pattern):
		return "stoplisted"
	}
	return ""
}

// RuleKey picks the key a correction of this row is learned under: the
// vendor key when there is one, otherwise the description key.
func (l *Learner) RuleKey(description, vendor string) (models.KeyType, string) {
	if key := l.VendorKey(vendor); key != "" {
		return models.KeyTypeVendor, key
	}
	return models.KeyTypeDescription, l.DescriptionKey(description)
}

// LearnFromEdit records a correction of one row under its RuleKey.
func (l *Learner) LearnFromEdit(ctx context.Context, owner models.OwnerID, description, vendor, category string, source models.RuleSource) error {
	keyType, pattern := l.RuleKey(description, vendor)
	return l.RecordCorrection(ctx, owner, keyType, pattern, category, source)
}
