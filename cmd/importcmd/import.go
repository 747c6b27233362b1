// Package importcmd implements the import command
package importcmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"fjacquet/expense-import/cmd/root"
	"fjacquet/expense-import/internal/currencyutils"
	"fjacquet/expense-import/internal/fileutils"
	"fjacquet/expense-import/internal/importer"
	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/report"

	"github.com/spf13/cobra"
)

var (
	inputFile         string
	commit            bool
	includeDuplicates bool
	rowOverrides      []string
	vendorOverrides   []string
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Preview and import a bank statement CSV file",
	Long: `Preview and import a bank statement CSV file.

The file is decoded, its columns are detected (or taken from the mapping saved
for files with the same header), and each row is categorized. Without --commit
nothing is written. Overrides given on the command line become learned rules
when the import is committed.

Example:
  expense-import import -i statement.csv
  expense-import import -i statement.csv --override 4=Restaurants --vendor-override "tim hortons=Bakery & Coffee" --commit`,
	RunE: importFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Statement CSV file to import")
	Cmd.Flags().BoolVar(&commit, "commit", false, "Persist the previewed transactions")
	Cmd.Flags().BoolVar(&includeDuplicates, "include-duplicates", false, "Also insert rows already present in storage")
	Cmd.Flags().StringArrayVar(&rowOverrides, "override", nil, "Category override for one row, as row=Category (repeatable)")
	Cmd.Flags().StringArrayVar(&vendorOverrides, "vendor-override", nil, "Category override for every row of a vendor, as vendor=Category (repeatable)")
	_ = Cmd.MarkFlagRequired("input")
}

func importFunc(cmd *cobra.Command, args []string) error {
	appContainer := root.GetContainer()
	if appContainer == nil {
		return fmt.Errorf("container not initialized")
	}
	logger := appContainer.GetLogger()
	ctx := root.Context(cmd)
	owner := root.Owner()

	overrides, err := ParseRowOverrides(rowOverrides)
	if err != nil {
		return err
	}
	byVendor, err := ParseVendorOverrides(vendorOverrides)
	if err != nil {
		return err
	}

	data, err := fileutils.ReadFile(inputFile)
	if err != nil {
		return err
	}

	svc := appContainer.GetImporter()
	preview, err := svc.Preview(ctx, owner, filepath.Base(inputFile), data, importer.PreviewOptions{})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, key := range sortedKeys(byVendor) {
		n := preview.ApplyVendorOverride(key, byVendor[key])
		logger.Debug("Applied vendor override",
			logging.F(logging.FieldPattern, key),
			logging.F(logging.FieldCategory, byVendor[key]),
			logging.F(logging.FieldCount, n))
		if n == 0 {
			_, _ = fmt.Fprintln(out, report.WarningStyle.Render(fmt.Sprintf("No rows matched vendor %q", key)))
		}
	}

	_, _ = fmt.Fprintln(out, RenderPreview(preview, overrides))

	if !commit {
		_, _ = fmt.Fprintln(out, report.SubtleStyle.Render("Preview only, run again with --commit to import."))
		return nil
	}

	result, err := svc.Commit(ctx, owner, preview, importer.CommitOptions{
		Overrides:         overrides,
		IncludeDuplicates: includeDuplicates || appContainer.GetConfig().Import.IncludeDuplicates,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, report.SuccessStyle.Render(fmt.Sprintf(
		"Imported %d transactions (%d invalid, %d duplicates skipped, %d corrections learned)",
		result.Inserted(), result.SkippedInvalid, result.SkippedDuplicates, result.Corrections)))
	return nil
}

// RenderPreview renders a preview as a styled table followed by its counts.
// Per-row overrides are shown in place of the proposed category.
func RenderPreview(p *importer.Preview, overrides map[int]string) string {
	columns := []report.Column{
		{Title: "Row", Width: 5, Right: true},
		{Title: "Date", Width: 11},
		{Title: "Amount", Width: 11, Right: true},
		{Title: "Vendor", Width: 24},
		{Title: "Category", Width: 26},
		{Title: "Conf", Width: 7},
		{Title: "Source", Width: 17},
		{Title: "Flags", Width: 14},
	}

	rows := make([][]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		index := strconv.Itoa(r.RowIndex)
		if r.Skipped() {
			rows = append(rows, []string{index, "", "", report.WarningStyle.Render("skipped: " + string(r.SkipReason))})
			continue
		}

		category, conf, source := r.ProposedCategory, models.ConfidenceLabel(r.Confidence), string(r.Source)
		if c, ok := overrides[r.RowIndex]; ok {
			category, conf, source = c, "High", string(models.SourceImportOverride)
		} else if c, ok := p.Override(r.RowIndex); ok {
			category, conf, source = c, "High", string(models.SourceImportOverride)
		}
		if category == "" {
			category = report.SubtleStyle.Render(report.UncategorizedLabel)
		}

		rows = append(rows, []string{
			index,
			r.Draft.Date.Format(models.DateLayout),
			currencyutils.FormatAmount(r.Draft.Amount),
			r.Draft.Vendor,
			category,
			conf,
			source,
			rowFlags(r),
		})
	}

	counts := p.Counts()
	var b strings.Builder
	b.WriteString(report.TitleStyle.Render(fmt.Sprintf("%s (%s, %s)", p.Filename, p.Format, p.Encoding)))
	b.WriteString("\n")
	b.WriteString(report.Table(columns, rows))
	b.WriteString("\n\n")
	b.WriteString(report.BoldStyle.Render(fmt.Sprintf(
		"%d rows: %d skipped, %d duplicates, %d categorized, %d transfers",
		counts.Total, counts.Skipped, counts.Duplicates, counts.Categorized, counts.Transfers)))
	return b.String()
}

func rowFlags(r importer.PreviewRow) string {
	var flags []string
	if r.IsDuplicate {
		flags = append(flags, "dup")
	}
	if r.IsTransfer {
		flags = append(flags, "transfer")
	}
	if r.IsPersonal {
		flags = append(flags, "personal")
	}
	return strings.Join(flags, ",")
}

// ParseRowOverrides parses repeated row=Category values.
func ParseRowOverrides(values []string) (map[int]string, error) {
	overrides := make(map[int]string, len(values))
	for _, v := range values {
		key, category, err := splitAssignment(v)
		if err != nil {
			return nil, err
		}
		row, err := strconv.Atoi(key)
		if err != nil || row <= 0 {
			return nil, fmt.Errorf("invalid row in override %q: must be a positive line number", v)
		}
		overrides[row] = category
	}
	return overrides, nil
}

// ParseVendorOverrides parses repeated vendor=Category values. The vendor
// part may itself be any text without an equals sign.
func ParseVendorOverrides(values []string) (map[string]string, error) {
	overrides := make(map[string]string, len(values))
	for _, v := range values {
		vendor, category, err := splitAssignment(v)
		if err != nil {
			return nil, err
		}
		overrides[vendor] = category
	}
	return overrides, nil
}

func splitAssignment(v string) (string, string, error) {
	key, value, ok := strings.Cut(v, "=")
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if !ok || key == "" || value == "" {
		return "", "", fmt.Errorf("invalid override %q: expected key=Category", v)
	}
	return key, value, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
