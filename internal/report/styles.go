package report

import "github.com/charmbracelet/lipgloss"

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#4ECDC4")
	// WarningColor marks duplicates and skipped rows.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor marks failures.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor is used for less prominent cells.
	SubtleColor = lipgloss.Color("#666666")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(SubtleColor)

	SuccessStyle = lipgloss.NewStyle().Foreground(PrimaryColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
)

// Column is one fixed-width table column.
type Column struct {
	Title string
	Width int
	Right bool
}

// Table renders rows as fixed-width columns with a styled header. Cells wider
// than their column are truncated.
func Table(columns []Column, rows [][]string) string {
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = cellStyle(c).Render(truncate(c.Title, c.Width))
	}
	lines := []string{TableHeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, header...))}

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			cells[i] = cellStyle(c).Render(truncate(value, c.Width))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func cellStyle(c Column) lipgloss.Style {
	s := lipgloss.NewStyle().Width(c.Width + 2).PaddingRight(2)
	if c.Right {
		s = s.Align(lipgloss.Right)
	}
	return s
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if width == 1 {
		return string(r[:1])
	}
	return string(r[:width-1]) + "…"
}
