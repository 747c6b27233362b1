package categorizer

import (
	"context"

	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/textutils"
)

// TransferConfidence is the confidence of every transfer verdict.
const TransferConfidence = 100

// TransferStage recognizes money movement: card payments, transfers,
// refunds. It always runs first and its verdicts are never learned.
type TransferStage struct {
	groups []TransferGroup
}

// NewTransferStage builds the stage from ordered groups; nil uses
// DefaultTransferGroups.
func NewTransferStage(groups []TransferGroup) *TransferStage {
	if groups == nil {
		groups = DefaultTransferGroups
	}
	normalized := make([]TransferGroup, 0, len(groups))
	for _, g := range groups {
		normalized = append(normalized, TransferGroup{Keywords: normalizePhrases(g.Keywords), Target: g.Target})
	}
	return &TransferStage{groups: normalized}
}

func (s *TransferStage) Name() string {
	return "Transfer"
}

func (s *TransferStage) Classify(_ context.Context, in *Input) (Outcome, error) {
	if raw := MapStatementCategory(in.Draft.RawCategory); raw != "" && in.Categories.IsTransferCategory(raw) {
		return s.transfer(in.Categories, raw), nil
	}

	description := textutils.Normalize(in.Draft.Description)
	vendor := in.Draft.VendorKey
	for _, g := range s.groups {
		if _, ok := containsAny(g.Keywords, description, vendor); ok {
			return s.transfer(in.Categories, g.Target), nil
		}
	}
	return NoMatch(), nil
}

// transfer resolves target against the owner's set: the preferred leaf, then
// the other transfer leaf, then no category at all. The row is a transfer in
// every case.
func (s *TransferStage) transfer(categories models.CategorySet, target string) Outcome {
	other := models.CategoryTransfers
	if textutils.Fold(target) == textutils.Fold(models.CategoryTransfers) {
		other = models.CategoryCreditCardPayments
	}
	out := Match(categories.Pick(target, other), models.SourceImportAuto, TransferConfidence)
	out.Transfer = true
	return out
}
