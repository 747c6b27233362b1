// Package report builds the monthly spending summary.
//
// Spending only counts outflows of non-transfer rows. The shared pool is
// spending minus personal rows.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fjacquet/expense-import/internal/currencyutils"
	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"

	"github.com/shopspring/decimal"
)

// UncategorizedLabel names the bucket of rows without a category.
const UncategorizedLabel = "Uncategorized"

// CategoryTotal is the spending of one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Group    string          `json:"group,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// MonthlySummary holds the totals of one owner for one month. Amounts are
// positive spending figures.
type MonthlySummary struct {
	Owner         models.OwnerID  `json:"owner"`
	Month         string          `json:"month"`
	TotalSpending decimal.Decimal `json:"total_spending"`
	SharedPool    decimal.Decimal `json:"shared_pool"`
	Personal      decimal.Decimal `json:"personal"`
	Income        decimal.Decimal `json:"income"`
	Transactions  int             `json:"transactions"`
	Transfers     int             `json:"transfers"`
	Categories    []CategoryTotal `json:"categories"`
}

// Summarize totals transactions, which must all belong to owner and month.
func Summarize(owner models.OwnerID, month string, transactions []models.Transaction) *MonthlySummary {
	s := &MonthlySummary{Owner: owner, Month: month, Transactions: len(transactions)}
	byCategory := make(map[string]*CategoryTotal)

	for _, t := range transactions {
		if t.IsTransfer {
			s.Transfers++
			continue
		}
		if !t.Amount.IsNegative() {
			s.Income = s.Income.Add(t.Amount)
			continue
		}

		spent := t.Amount.Abs()
		s.TotalSpending = s.TotalSpending.Add(spent)
		if t.IsShared() {
			s.SharedPool = s.SharedPool.Add(spent)
		} else {
			s.Personal = s.Personal.Add(spent)
		}

		name := t.Category
		if name == "" {
			name = UncategorizedLabel
		}
		total, ok := byCategory[name]
		if !ok {
			total = &CategoryTotal{Category: name, Group: models.GroupOf(t.Category)}
			byCategory[name] = total
		}
		total.Amount = total.Amount.Add(spent)
		total.Count++
	}

	for _, total := range byCategory {
		s.Categories = append(s.Categories, *total)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		a, b := s.Categories[i], s.Categories[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Category < b.Category
	})
	return s
}

// ReportGenerator renders summaries in the supported formats.
type ReportGenerator struct {
	logger logging.Logger
}

// NewReportGenerator creates a new instance of ReportGenerator.
func NewReportGenerator(logger logging.Logger) *ReportGenerator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ReportGenerator{logger: logger}
}

// GenerateReport renders a summary as "text" or "json".
func (g *ReportGenerator) GenerateReport(summary *MonthlySummary, format string) ([]byte, error) {
	switch format {
	case "text", "":
		return []byte(g.renderText(summary)), nil
	case "json":
		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			g.logger.WithError(err).Error("Failed to marshal JSON report")
			return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

func (g *ReportGenerator) renderText(s *MonthlySummary) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Summary for %s", s.Month)))
	b.WriteString("\n")

	totals := [][]string{
		{"Total spending", currencyutils.FormatAmount(s.TotalSpending)},
		{"Shared pool", currencyutils.FormatAmount(s.SharedPool)},
		{"Personal", currencyutils.FormatAmount(s.Personal)},
		{"Income", currencyutils.FormatAmount(s.Income)},
		{"Transfers", strconv.Itoa(s.Transfers)},
	}
	b.WriteString(Table([]Column{{Title: "Total", Width: 16}, {Title: "Amount", Width: 12, Right: true}}, totals))
	b.WriteString("\n\n")

	if len(s.Categories) == 0 {
		b.WriteString(SubtleStyle.Render("No spending this month."))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		rows = append(rows, []string{c.Category, c.Group, strconv.Itoa(c.Count), currencyutils.FormatAmount(c.Amount)})
	}
	b.WriteString(Table([]Column{
		{Title: "Category", Width: 28},
		{Title: "Group", Width: 20},
		{Title: "Rows", Width: 5, Right: true},
		{Title: "Amount", Width: 12, Right: true},
	}, rows))
	b.WriteString("\n")
	return b.String()
}
