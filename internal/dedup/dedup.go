// Package dedup detects statement rows that are already stored.
//
// Two rows are duplicates when owner, date, normalized description and signed
// amount are all equal. Near-duplicates with different description noise are
// kept apart.
package dedup

import (
	"fmt"
	"time"

	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/textutils"

	"github.com/shopspring/decimal"
)

// Fingerprint is the exact identity of a transaction for deduplication. The
// amount is the exact decimal with trailing zeros dropped, so 4.50 equals 4.5
// but never 4.505.
type Fingerprint struct {
	Owner       models.OwnerID
	Date        string
	Description string
	Amount      string
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%d|%s|%s|%s", f.Owner, f.Date, f.Description, f.Amount)
}

// NewFingerprint builds a fingerprint from raw values.
func NewFingerprint(owner models.OwnerID, date time.Time, description string, amount decimal.Decimal) Fingerprint {
	return Fingerprint{
		Owner:       owner,
		Date:        date.Format(models.DateLayout),
		Description: textutils.Normalize(description),
		Amount:      amount.String(),
	}
}

// OfDraft fingerprints a draft.
func OfDraft(d models.Draft) Fingerprint {
	return NewFingerprint(d.Owner, d.Date, d.Description, d.Amount)
}

// OfTransaction fingerprints a stored transaction.
func OfTransaction(t models.Transaction) Fingerprint {
	return NewFingerprint(t.Owner, t.Date, t.Description, t.Amount)
}

// Deduplicator answers duplicate queries against a set of known transactions.
// It is not safe for concurrent use; one import owns one Deduplicator.
type Deduplicator struct {
	seen map[Fingerprint]struct{}
}

// New indexes existing transactions.
func New(existing []models.Transaction) *Deduplicator {
	d := &Deduplicator{seen: make(map[Fingerprint]struct{}, len(existing))}
	for _, t := range existing {
		d.Remember(t)
	}
	return d
}

// IsDuplicate reports whether draft matches a known transaction.
func (d *Deduplicator) IsDuplicate(draft models.Draft) bool {
	_, ok := d.seen[OfDraft(draft)]
	return ok
}

// Remember adds a transaction, typically one just committed.
func (d *Deduplicator) Remember(t models.Transaction) {
	d.seen[OfTransaction(t)] = struct{}{}
}

// Len returns the number of distinct fingerprints known.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}

// IsDuplicate is the stateless form used when only a slice of existing
// transactions is at hand.
func IsDuplicate(draft models.Draft, existing []models.Transaction) bool {
	target := OfDraft(draft)
	for _, t := range existing {
		if OfTransaction(t) == target {
			return true
		}
	}
	return false
}
