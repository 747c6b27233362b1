package csvparser

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"fjacquet/expense-import/internal/parsererror"
	"fjacquet/expense-import/internal/textutils"
)

// Role is the meaning of a statement column.
type Role string

const (
	RoleDate        Role = "date"
	RoleAmount      Role = "amount"
	RoleDebit       Role = "debit"
	RoleCredit      Role = "credit"
	RoleDescription Role = "description"
	RoleVendor      Role = "vendor"
	RoleCategory    Role = "category"
)

// Unmapped marks a role with no column.
const Unmapped = -1

// headerAliases lists recognized header names per role, already normalized.
// Order matters only for documentation; the first column matching a role wins.
var headerAliases = []struct {
	role    Role
	aliases []string
}{
	{RoleDate, []string{"date", "transaction date", "posting date", "date processed", "trans date", "post date"}},
	{RoleAmount, []string{"amount", "transaction amount"}},
	{RoleDebit, []string{"debit", "withdrawal", "withdrawals", "debit amount"}},
	{RoleCredit, []string{"credit", "deposit", "deposits", "credit amount"}},
	{RoleDescription, []string{"description", "memo", "details", "transaction details"}},
	{RoleVendor, []string{"vendor", "merchant", "payee", "name", "merchant name"}},
	{RoleCategory, []string{"category"}},
}

// ColumnMapping holds the column index of every role, or Unmapped.
type ColumnMapping struct {
	Date        int `json:"date"`
	Amount      int `json:"amount"`
	Debit       int `json:"debit"`
	Credit      int `json:"credit"`
	Description int `json:"description"`
	Vendor      int `json:"vendor"`
	Category    int `json:"category"`
}

// EmptyMapping returns a mapping with every role unmapped.
func EmptyMapping() ColumnMapping {
	return ColumnMapping{
		Date: Unmapped, Amount: Unmapped, Debit: Unmapped, Credit: Unmapped,
		Description: Unmapped, Vendor: Unmapped, Category: Unmapped,
	}
}

// HeaderlessMapping is the fixed layout used when no header is found:
// date, description, debit, credit. Extra columns are ignored.
func HeaderlessMapping() ColumnMapping {
	m := EmptyMapping()
	m.Date = 0
	m.Description = 1
	m.Debit = 2
	m.Credit = 3
	return m
}

func (m *ColumnMapping) slot(role Role) *int {
	switch role {
	case RoleDate:
		return &m.Date
	case RoleAmount:
		return &m.Amount
	case RoleDebit:
		return &m.Debit
	case RoleCredit:
		return &m.Credit
	case RoleDescription:
		return &m.Description
	case RoleVendor:
		return &m.Vendor
	case RoleCategory:
		return &m.Category
	}
	return nil
}

// Get returns the column of role.
func (m ColumnMapping) Get(role Role) int {
	if p := m.slot(role); p != nil {
		return *p
	}
	return Unmapped
}

// Set assigns a column to role.
func (m *ColumnMapping) Set(role Role, column int) {
	if p := m.slot(role); p != nil {
		*p = column
	}
}

// HasAmount reports whether any amount-carrying column is mapped.
func (m ColumnMapping) HasAmount() bool {
	return m.Amount != Unmapped || m.Debit != Unmapped || m.Credit != Unmapped
}

// Merge returns m with every mapped role of override applied on top.
func (m ColumnMapping) Merge(override ColumnMapping) ColumnMapping {
	out := m
	for _, entry := range headerAliases {
		if col := override.Get(entry.role); col != Unmapped {
			out.Set(entry.role, col)
		}
	}
	return out
}

// IsEmpty reports whether no role is mapped.
func (m ColumnMapping) IsEmpty() bool {
	return m == EmptyMapping()
}

// Validate checks that a mapping can produce drafts.
func (m ColumnMapping) Validate() error {
	if m.Date == Unmapped {
		return &parsererror.ValidationError{Subject: "column mapping", Reason: "no date column"}
	}
	if !m.HasAmount() {
		return &parsererror.ValidationError{Subject: "column mapping", Reason: "no amount, debit or credit column"}
	}
	for _, entry := range headerAliases {
		if col := m.Get(entry.role); col < Unmapped {
			return &parsererror.ValidationError{Subject: "column mapping", Reason: "negative column for " + string(entry.role)}
		}
	}
	return nil
}

// roleOf returns the role a header cell names.
func roleOf(cell string) (Role, bool) {
	name := textutils.Normalize(cell)
	if name == "" {
		return "", false
	}
	for _, entry := range headerAliases {
		for _, alias := range entry.aliases {
			if name == alias {
				return entry.role, true
			}
		}
	}
	return "", false
}

// MappingFromHeader infers column roles from header names. The first column
// naming a role wins. A merchant-style column doubles as the description when
// the file has no description column.
func MappingFromHeader(header []string) ColumnMapping {
	m := EmptyMapping()
	for i, cell := range header {
		role, ok := roleOf(cell)
		if !ok || m.Get(role) != Unmapped {
			continue
		}
		m.Set(role, i)
	}
	if m.Description == Unmapped && m.Vendor != Unmapped {
		m.Description = m.Vendor
	}
	return m
}

// looksLikeHeader reports whether a row carries date, amount-ish and
// description-ish header vocabulary. Merchant names count as description.
func looksLikeHeader(fields []string) bool {
	var hasDate, hasAmount, hasDescription bool
	for _, cell := range fields {
		role, ok := roleOf(cell)
		if !ok {
			continue
		}
		switch role {
		case RoleDate:
			hasDate = true
		case RoleAmount, RoleDebit, RoleCredit:
			hasAmount = true
		case RoleDescription, RoleVendor:
			hasDescription = true
		}
	}
	return hasDate && hasAmount && hasDescription
}

// FileSignature identifies a statement layout by file name and header cells
// so a confirmed mapping can be reused on the next upload.
func FileSignature(filename string, header []string) string {
	cells := make([]string, 0, len(header)+1)
	cells = append(cells, strings.ToLower(filepath.Base(filename)))
	for _, cell := range header {
		cells = append(cells, textutils.Normalize(cell))
	}
	sum := sha256.Sum256([]byte(strings.Join(cells, "|")))
	return hex.EncodeToString(sum[:])
}
