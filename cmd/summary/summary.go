// Package summary prints monthly spending totals
package summary

import (
	"fmt"
	"time"

	"fjacquet/expense-import/cmd/root"
	"fjacquet/expense-import/internal/dateutils"
	"fjacquet/expense-import/internal/report"
	"fjacquet/expense-import/internal/store"

	"github.com/spf13/cobra"
)

var (
	month  string
	format string
)

// Cmd represents the summary command
var Cmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the monthly spending summary",
	Long: `Print total spending, the shared pool, personal spending and income for a
month, broken down by category. Transfers are counted but never included in
spending.

Example:
  expense-import summary --month 2024-03
  expense-import summary --month 2024-03 --format json`,
	RunE: summaryFunc,
}

func init() {
	Cmd.Flags().StringVarP(&month, "month", "m", "", "Month to summarize (YYYY-MM, default: current month)")
	Cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
}

func summaryFunc(cmd *cobra.Command, args []string) error {
	appContainer := root.GetContainer()
	if appContainer == nil {
		return fmt.Errorf("container not initialized")
	}

	m := month
	if m == "" {
		m = time.Now().Format(dateutils.DateLayoutMonth)
	}
	from, to, err := dateutils.MonthRange(m)
	if err != nil {
		return err
	}

	transactions, err := appContainer.GetStorage().ListTransactions(root.Context(cmd), root.Owner(),
		store.TransactionFilter{From: from, To: to})
	if err != nil {
		return err
	}

	s := report.Summarize(root.Owner(), m, transactions)
	out, err := report.NewReportGenerator(appContainer.GetLogger()).GenerateReport(s, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
