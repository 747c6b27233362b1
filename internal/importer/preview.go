package importer

import (
	"fjacquet/expense-import/internal/csvparser"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/rowparser"
	"fjacquet/expense-import/internal/textutils"
)

// PreviewRow is the proposed outcome for one data row of an upload. Every
// row of the file has one, including rows that cannot be imported.
type PreviewRow struct {
	RowIndex         int
	Fields           []string
	Draft            models.Draft
	ProposedCategory string
	Confidence       *int
	Source           models.Source
	IsDuplicate      bool
	IsTransfer       bool
	IsPersonal       bool
	Tags             []string
	SkipReason       rowparser.SkipReason

	classified bool
}

// Skipped reports whether the row produced no draft.
func (r PreviewRow) Skipped() bool {
	return r.SkipReason != ""
}

func (r *PreviewRow) setClassification(c models.Classification) {
	r.ProposedCategory = c.Category
	r.Confidence = c.Confidence
	r.Source = c.Source
	r.IsTransfer = c.IsTransfer
	r.IsPersonal = c.IsPersonal
	r.Tags = c.Tags
}

func (r PreviewRow) classification() models.Classification {
	return models.Classification{
		Category:   r.ProposedCategory,
		Confidence: r.Confidence,
		Source:     r.Source,
		IsTransfer: r.IsTransfer,
		IsPersonal: r.IsPersonal,
		Tags:       r.Tags,
	}
}

// Preview is an upload decoded and classified but not yet persisted.
type Preview struct {
	Owner     models.OwnerID
	Filename  string
	Signature string
	Encoding  string
	Format    csvparser.Format
	Mapping   csvparser.ColumnMapping
	Rows      []PreviewRow

	// overrides set through ApplyVendorOverride, keyed by RowIndex.
	overrides map[int]string
}

// Counts summarizes a preview.
type Counts struct {
	Total       int
	Skipped     int
	Duplicates  int
	Categorized int
	Transfers   int
}

// Counts tallies the preview rows.
func (p *Preview) Counts() Counts {
	c := Counts{Total: len(p.Rows)}
	for _, r := range p.Rows {
		switch {
		case r.Skipped():
			c.Skipped++
			continue
		case r.IsDuplicate:
			c.Duplicates++
		}
		if r.ProposedCategory != "" {
			c.Categorized++
		}
		if r.IsTransfer {
			c.Transfers++
		}
	}
	return c
}

// ApplyVendorOverride assigns category to every importable row whose vendor
// key matches, and returns how many rows it touched. Per-row overrides given
// to Commit take precedence.
func (p *Preview) ApplyVendorOverride(vendorKey, category string) int {
	key := textutils.Normalize(vendorKey)
	if key == "" || category == "" {
		return 0
	}
	if p.overrides == nil {
		p.overrides = make(map[int]string)
	}
	n := 0
	for _, r := range p.Rows {
		if r.Skipped() || r.Draft.VendorKey != key {
			continue
		}
		p.overrides[r.RowIndex] = category
		n++
	}
	return n
}

// Override returns the category assigned to a row by ApplyVendorOverride.
func (p *Preview) Override(rowIndex int) (string, bool) {
	c, ok := p.overrides[rowIndex]
	return c, ok
}
