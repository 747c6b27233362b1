// Package export writes stored transactions to CSV
package export

import (
	"fmt"

	"fjacquet/expense-import/cmd/root"
	"fjacquet/expense-import/internal/dateutils"
	"fjacquet/expense-import/internal/common"
	"fjacquet/expense-import/internal/report"
	"fjacquet/expense-import/internal/store"

	"github.com/spf13/cobra"
)

var (
	outputFile string
	month      string
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored transactions to CSV",
	Long: `Export the owner's stored transactions, oldest first, to a CSV file.
When --output is empty or "-", the CSV is written to stdout.

Example:
  expense-import export -o march.csv --month 2024-03`,
	RunE: exportFunc,
}

func init() {
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output CSV file (default: stdout)")
	Cmd.Flags().StringVarP(&month, "month", "m", "", "Only export this month (YYYY-MM)")
}

func exportFunc(cmd *cobra.Command, args []string) error {
	appContainer := root.GetContainer()
	if appContainer == nil {
		return fmt.Errorf("container not initialized")
	}

	filter, err := MonthFilter(month)
	if err != nil {
		return err
	}
	transactions, err := appContainer.GetStorage().ListTransactions(root.Context(cmd), root.Owner(), filter)
	if err != nil {
		return err
	}

	delimiter := appContainer.GetConfig().ExportDelimiter()
	if outputFile == "" || outputFile == "-" {
		return common.WriteTransactionsCSV(cmd.OutOrStdout(), transactions, delimiter)
	}
	if err := common.ExportTransactionsToCSV(transactions, outputFile, delimiter, appContainer.GetLogger()); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.SuccessStyle.Render(
		fmt.Sprintf("Exported %d transactions to %s", len(transactions), outputFile)))
	return nil
}

// MonthFilter returns the filter for a YYYY-MM month; an empty month is
// unbounded.
func MonthFilter(month string) (store.TransactionFilter, error) {
	if month == "" {
		return store.TransactionFilter{}, nil
	}
	from, to, err := dateutils.MonthRange(month)
	if err != nil {
		return store.TransactionFilter{}, err
	}
	return store.TransactionFilter{From: from, To: to}, nil
}
