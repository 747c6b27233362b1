// Package categorize handles transaction categorization commands
package categorize

import (
	"fmt"
	"io"

	"fjacquet/expense-import/cmd/root"
	"fjacquet/expense-import/internal/categorizer"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/report"

	"github.com/spf13/cobra"
)

var (
	description   string
	vendor        string
	transactionID int64
	category      string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize one transaction description against the owner's rules",
	Long: `Categorize one transaction description against the owner's rules.

Without --transaction the description (and optional vendor) runs through the
full classification pipeline and nothing is stored. With --transaction and
--category a stored transaction is recategorized and the correction is
learned as a rule.

Example:
  expense-import categorize --description "TIM HORTONS #123 TORONTO"
  expense-import categorize --transaction 42 --category Restaurants`,
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&description, "description", "s", "", "Transaction description to categorize")
	Cmd.Flags().StringVarP(&vendor, "vendor", "v", "", "Vendor name (derived from the description when empty)")
	Cmd.Flags().Int64VarP(&transactionID, "transaction", "t", 0, "Stored transaction to recategorize")
	Cmd.Flags().StringVarP(&category, "category", "g", "", "New category for --transaction")
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	appContainer := root.GetContainer()
	if appContainer == nil {
		return fmt.Errorf("container not initialized")
	}
	svc := appContainer.GetImporter()
	ctx := root.Context(cmd)
	out := cmd.OutOrStdout()

	if transactionID != 0 {
		if category == "" {
			return fmt.Errorf("--category is required with --transaction")
		}
		tx, err := svc.Recategorize(ctx, root.Owner(), transactionID, category)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, report.SuccessStyle.Render(
			fmt.Sprintf("Transaction %d (%s) is now %s", tx.ID, tx.Description, tx.Category)))
		return nil
	}

	if description == "" && vendor == "" {
		return fmt.Errorf("--description or --vendor is required")
	}
	c, trace, err := svc.Classify(ctx, root.Owner(), description, vendor)
	if err != nil {
		return err
	}
	PrintClassification(out, c, trace)
	return nil
}

// PrintClassification writes a classification and the stages that produced it.
func PrintClassification(w io.Writer, c models.Classification, trace categorizer.Trace) {
	name := c.Category
	if name == "" {
		name = report.UncategorizedLabel
	}
	_, _ = fmt.Fprintln(w, report.TitleStyle.Render("Category: "+name))

	rows := [][]string{
		{"Group", models.GroupOf(c.Category)},
		{"Source", string(c.Source)},
		{"Confidence", confidence(c.Confidence)},
		{"Transfer", fmt.Sprintf("%t", c.IsTransfer)},
		{"Personal", fmt.Sprintf("%t", c.IsPersonal)},
	}
	_, _ = fmt.Fprintln(w, report.Table([]report.Column{{Title: "Field", Width: 12}, {Title: "Value", Width: 30}}, rows))
	_, _ = fmt.Fprintln(w, report.SubtleStyle.Render("Stages: "+trace.Summary()))
}

func confidence(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d (%s)", *v, models.ConfidenceLabel(v))
}
