// Package importer runs the statement import workflow: Preview decodes and
// classifies an upload without writing anything, Commit persists the
// reviewed rows and learns from the user's corrections.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/expense-import/internal/categorizer"
	"fjacquet/expense-import/internal/csvparser"
	"fjacquet/expense-import/internal/dedup"
	"fjacquet/expense-import/internal/learning"
	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/parsererror"
	"fjacquet/expense-import/internal/rowparser"
	"fjacquet/expense-import/internal/store"
	"fjacquet/expense-import/internal/textutils"
)

// OverrideConfidence is recorded for categories chosen by the user.
const OverrideConfidence = 100

// PreviewOptions tunes one preview.
type PreviewOptions struct {
	// Mapping, when set, wins over saved and detected column roles for the
	// roles it maps.
	Mapping *csvparser.ColumnMapping
}

// CommitOptions carries the user's review decisions.
type CommitOptions struct {
	// Overrides maps a RowIndex to the category chosen by the user.
	Overrides         map[int]string
	IncludeDuplicates bool
}

// CommitResult reports what a commit persisted.
type CommitResult struct {
	Transactions      []models.Transaction
	SkippedInvalid    int
	SkippedDuplicates int
	Corrections       int
}

// Inserted is the number of persisted transactions.
func (r *CommitResult) Inserted() int {
	return len(r.Transactions)
}

// Service imports statements for any owner.
type Service struct {
	storage  store.Storage
	decoder  *csvparser.Decoder
	pipeline *categorizer.Pipeline
	learner  *learning.Learner
	logger   logging.Logger
}

// NewService wires the import workflow.
func NewService(storage store.Storage, decoder *csvparser.Decoder, pipeline *categorizer.Pipeline, learner *learning.Learner, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	if decoder == nil {
		decoder = csvparser.NewDecoder(logger)
	}
	return &Service{
		storage:  storage,
		decoder:  decoder,
		pipeline: pipeline,
		learner:  learner,
		logger:   logger,
	}
}

// Preview decodes data, uploaded as filename, and proposes a classification
// for every row. Only a decode failure or an empty file is an error; rows
// that cannot be imported carry a SkipReason.
func (s *Service) Preview(ctx context.Context, owner models.OwnerID, filename string, data []byte, opts PreviewOptions) (*Preview, error) {
	start := time.Now()
	log := s.logger.WithFields(logging.F(logging.FieldOwner, owner), logging.F(logging.FieldFile, filename))

	if err := s.storage.EnsureDefaultCategories(ctx, owner); err != nil {
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}
	set, err := s.categories(ctx, owner)
	if err != nil {
		return nil, err
	}

	decoded, err := s.decoder.Decode(filename, data)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		Owner:     owner,
		Filename:  filename,
		Signature: csvparser.FileSignature(filename, decoded.Header),
		Encoding:  decoded.Encoding,
		Format:    decoded.Format,
	}
	preview.Mapping, err = s.resolveMapping(ctx, owner, preview.Signature, decoded.Mapping, opts.Mapping)
	if err != nil {
		return nil, err
	}
	if err := preview.Mapping.Validate(); err != nil {
		log.WithError(err).Warn("Column mapping is incomplete, rows will be skipped")
	}

	preview.Rows = make([]PreviewRow, 0, len(decoded.Rows))
	var drafts []models.Draft
	for _, row := range decoded.Rows {
		draft, skip := rowparser.NormalizeRow(owner, row.Line, row.Fields, preview.Mapping)
		pr := PreviewRow{RowIndex: row.Line, Fields: row.Fields, Draft: draft}
		if skip != nil {
			pr.SkipReason = skip.Reason
			log.Debug("Skipping row",
				logging.F(logging.FieldRow, row.Line),
				logging.F(logging.FieldReason, skip.Error()))
		} else {
			drafts = append(drafts, draft)
		}
		preview.Rows = append(preview.Rows, pr)
	}

	existing, err := s.existing(ctx, owner, drafts)
	if err != nil {
		return nil, err
	}
	dd := dedup.New(existing)

	for i := range preview.Rows {
		pr := &preview.Rows[i]
		if pr.Skipped() {
			continue
		}
		// Duplicates are not classified so they never bump rule hits.
		if dd.IsDuplicate(pr.Draft) {
			pr.IsDuplicate = true
			pr.Source = models.SourceImportAuto
			continue
		}
		pr.setClassification(s.pipeline.Classify(ctx, categorizer.Input{Owner: owner, Draft: pr.Draft, Categories: set}))
		pr.classified = true
	}

	counts := preview.Counts()
	log.Info("Preview ready",
		logging.F(logging.FieldCount, counts.Total),
		logging.F("skipped", counts.Skipped),
		logging.F("duplicates", counts.Duplicates),
		logging.F("categorized", counts.Categorized),
		logging.F(logging.FieldEncoding, preview.Encoding),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return preview, nil
}

// resolveMapping layers the explicit mapping over the saved one over the
// detected one.
func (s *Service) resolveMapping(ctx context.Context, owner models.OwnerID, signature string, detected csvparser.ColumnMapping, explicit *csvparser.ColumnMapping) (csvparser.ColumnMapping, error) {
	mapping := detected
	saved, err := s.storage.LoadMapping(ctx, owner, signature)
	switch {
	case err == nil:
		mapping = mapping.Merge(saved)
	case !errors.Is(err, store.ErrNotFound):
		return mapping, fmt.Errorf("failed to load saved mapping: %w", err)
	}
	if explicit != nil {
		mapping = mapping.Merge(*explicit)
	}
	return mapping, nil
}

// existing loads the stored transactions that could collide with drafts.
func (s *Service) existing(ctx context.Context, owner models.OwnerID, drafts []models.Draft) ([]models.Transaction, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	from, to := drafts[0].Date, drafts[0].Date
	for _, d := range drafts[1:] {
		if d.Date.Before(from) {
			from = d.Date
		}
		if d.Date.After(to) {
			to = d.Date
		}
	}
	txs, err := s.storage.ListTransactions(ctx, owner, store.TransactionFilter{From: from, To: to.AddDate(0, 0, 1)})
	if err != nil {
		return nil, fmt.Errorf("failed to load existing transactions: %w", err)
	}
	return txs, nil
}

func (s *Service) categories(ctx context.Context, owner models.OwnerID) (models.CategorySet, error) {
	list, err := s.storage.ListCategories(ctx, owner)
	if err != nil {
		return models.CategorySet{}, fmt.Errorf("failed to load categories: %w", err)
	}
	return models.NewCategorySet(list), nil
}

type learnKey struct {
	keyType  models.KeyType
	pattern  string
	category string
}

// Commit persists the reviewed preview. Overrides naming unknown categories
// fail the commit before anything is written. Learning and mapping failures
// are logged and do not undo the import.
func (s *Service) Commit(ctx context.Context, owner models.OwnerID, preview *Preview, opts CommitOptions) (*CommitResult, error) {
	if preview == nil {
		return nil, &parsererror.ValidationError{Subject: "preview", Reason: "nil preview"}
	}
	if preview.Owner != owner {
		return nil, &parsererror.ValidationError{Subject: "preview", Reason: "preview belongs to another owner"}
	}
	log := s.logger.WithFields(logging.F(logging.FieldOwner, owner), logging.F(logging.FieldFile, preview.Filename))

	set, err := s.categories(ctx, owner)
	if err != nil {
		return nil, err
	}

	var drafts []models.Draft
	for _, r := range preview.Rows {
		if !r.Skipped() {
			drafts = append(drafts, r.Draft)
		}
	}
	existing, err := s.existing(ctx, owner, drafts)
	if err != nil {
		return nil, err
	}
	dd := dedup.New(existing)

	result := &CommitResult{}
	var txs []models.Transaction
	var corrections []learnKey
	for _, r := range preview.Rows {
		if r.Skipped() {
			result.SkippedInvalid++
			continue
		}
		if !opts.IncludeDuplicates && (r.IsDuplicate || dd.IsDuplicate(r.Draft)) {
			result.SkippedDuplicates++
			continue
		}

		c := r.classification()
		if !r.classified {
			c = s.pipeline.Classify(ctx, categorizer.Input{Owner: owner, Draft: r.Draft, Categories: set})
			r.ProposedCategory = c.Category
		}
		if chosen, ok := overrideFor(preview, opts, r.RowIndex); ok {
			category := set.Pick(chosen)
			if category == "" {
				return nil, &parsererror.ValidationError{
					Subject: "override",
					Reason:  fmt.Sprintf("row %d: unknown category %q", r.RowIndex, chosen),
				}
			}
			transfer := set.IsTransferCategory(category)
			c = models.Classification{
				Category:   category,
				Confidence: models.IntPtr(OverrideConfidence),
				Source:     models.SourceImportOverride,
				IsTransfer: transfer,
				IsPersonal: !transfer && (c.IsPersonal || isPersonalCategory(category)),
				Tags:       c.Tags,
			}
			if !transfer && textutils.Fold(category) != textutils.Fold(r.ProposedCategory) {
				keyType, pattern := s.learner.RuleKey(r.Draft.Description, r.Draft.Vendor)
				corrections = append(corrections, learnKey{keyType: keyType, pattern: pattern, category: category})
			}
		}
		txs = append(txs, r.Draft.ToTransaction(c))
	}

	if len(txs) > 0 {
		saved, err := s.storage.SaveTransactions(ctx, owner, txs)
		if err != nil {
			return nil, fmt.Errorf("failed to save transactions: %w", err)
		}
		result.Transactions = saved
	}

	seen := make(map[learnKey]struct{}, len(corrections))
	for _, key := range corrections {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result.Corrections++
		err := s.learner.RecordCorrection(ctx, owner, key.keyType, key.pattern, key.category, models.RuleSourceImportOverride)
		if err != nil {
			log.WithError(err).Warn("Failed to learn from override",
				logging.F(logging.FieldPattern, key.pattern),
				logging.F(logging.FieldCategory, key.category))
		}
	}

	if preview.Format == csvparser.FormatHeader && preview.Mapping.Validate() == nil {
		if err := s.storage.SaveMapping(ctx, owner, preview.Signature, preview.Mapping); err != nil {
			log.WithError(err).Warn("Failed to save column mapping")
		}
	}

	log.Info("Committed import",
		logging.F(logging.FieldCount, result.Inserted()),
		logging.F("skipped_invalid", result.SkippedInvalid),
		logging.F("skipped_duplicates", result.SkippedDuplicates),
		logging.F("corrections", result.Corrections))
	return result, nil
}

func overrideFor(preview *Preview, opts CommitOptions, rowIndex int) (string, bool) {
	if c, ok := opts.Overrides[rowIndex]; ok && c != "" {
		return c, true
	}
	return preview.Override(rowIndex)
}

func isPersonalCategory(category string) bool {
	return textutils.Fold(category) == textutils.Fold(models.CategoryPersonal)
}

// Recategorize applies a manual category edit to a stored transaction and
// learns from it unless the new category is a transfer.
func (s *Service) Recategorize(ctx context.Context, owner models.OwnerID, txID int64, category string) (*models.Transaction, error) {
	tx, err := s.storage.GetTransaction(ctx, owner, txID)
	if err != nil {
		return nil, err
	}
	set, err := s.categories(ctx, owner)
	if err != nil {
		return nil, err
	}
	canonical := set.Pick(category)
	if canonical == "" {
		return nil, &parsererror.ValidationError{Subject: "category", Reason: fmt.Sprintf("unknown category %q", category)}
	}

	transfer := set.IsTransferCategory(canonical)
	c := models.Classification{
		Category:   canonical,
		Confidence: models.IntPtr(OverrideConfidence),
		Source:     models.SourceManual,
		IsTransfer: transfer,
		IsPersonal: !transfer && (tx.IsPersonal || isPersonalCategory(canonical)),
	}
	if err := s.storage.UpdateClassification(ctx, owner, txID, c); err != nil {
		return nil, fmt.Errorf("failed to update transaction %d: %w", txID, err)
	}

	if !transfer {
		if err := s.learner.LearnFromEdit(ctx, owner, tx.Description, tx.Vendor, canonical, models.RuleSourceManualEdit); err != nil {
			s.logger.WithError(err).Warn("Failed to learn from manual edit", logging.F(logging.FieldOwner, owner))
		}
	}

	tx.Category = c.Category
	tx.Confidence = c.Confidence
	tx.Source = c.Source
	tx.IsTransfer = c.IsTransfer
	tx.IsPersonal = c.IsPersonal
	return tx, nil
}

// Classify runs the pipeline on one description and vendor without
// importing anything.
func (s *Service) Classify(ctx context.Context, owner models.OwnerID, description, vendor string) (models.Classification, categorizer.Trace, error) {
	if err := s.storage.EnsureDefaultCategories(ctx, owner); err != nil {
		return models.Classification{}, categorizer.Trace{}, fmt.Errorf("failed to seed categories: %w", err)
	}
	set, err := s.categories(ctx, owner)
	if err != nil {
		return models.Classification{}, categorizer.Trace{}, err
	}
	if vendor == "" {
		vendor = rowparser.DeriveVendor(description)
	}
	draft := models.Draft{
		Owner:       owner,
		Description: description,
		Vendor:      vendor,
		VendorKey:   textutils.Normalize(vendor),
	}
	c, trace := s.pipeline.ClassifyWithTrace(ctx, categorizer.Input{Owner: owner, Draft: draft, Categories: set})
	return c, trace, nil
}
