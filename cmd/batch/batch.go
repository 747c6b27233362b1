// Package batch handles batch imports of a directory of statements
package batch

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"fjacquet/expense-import/cmd/root"
	"fjacquet/expense-import/internal/batch"
	"fjacquet/expense-import/internal/report"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	inputDir string
	commit   bool
)

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Import every statement CSV file of a directory",
	Long: `Import every .csv file of a directory.

Files are decoded and categorized concurrently, then committed one after the
other in file name order, so a transaction present in two files is only
imported once. A file that fails does not stop the others.

Example:
  expense-import batch --input-dir statements/ --commit`,
	RunE: batchFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputDir, "input-dir", "d", "", "Directory containing statement CSV files")
	Cmd.Flags().BoolVar(&commit, "commit", false, "Persist the imported transactions")
	_ = Cmd.MarkFlagRequired("input-dir")
}

func batchFunc(cmd *cobra.Command, args []string) error {
	appContainer := root.GetContainer()
	if appContainer == nil {
		return fmt.Errorf("container not initialized")
	}
	logger := appContainer.GetLogger()
	importer := appContainer.GetBatchImporter()

	files, err := importer.Files(inputDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(files) == 0 {
		_, _ = fmt.Fprintln(out, report.WarningStyle.Render("No statement files found in "+inputDir))
		return nil
	}

	bar := newProgressBar(cmd.ErrOrStderr(), len(files))
	result, err := importer.Run(root.Context(cmd), root.Owner(), inputDir, batch.Options{
		Commit:            commit,
		IncludeDuplicates: appContainer.GetConfig().Import.IncludeDuplicates,
		OnFile: func(batch.FileResult) {
			if err := bar.Add(1); err != nil {
				logger.WithError(err).Debug("Failed to update progress bar")
			}
		},
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, RenderReport(result, commit))
	return nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing statements...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

// RenderReport renders the per-file outcome of a batch run and its totals.
func RenderReport(r *batch.Report, committed bool) string {
	rows := make([][]string, 0, len(r.Files))
	for _, f := range r.Files {
		name := filepath.Base(f.Path)
		if f.Err != nil {
			rows = append(rows, []string{name, "", "", "", report.ErrorStyle.Render(f.Err.Error())})
			continue
		}
		row := []string{name, strconv.Itoa(len(f.Preview.Rows)), "", "", report.SuccessStyle.Render("ok")}
		if f.Commit != nil {
			row[2] = strconv.Itoa(f.Commit.Inserted())
			row[3] = strconv.Itoa(f.Commit.SkippedDuplicates)
		}
		rows = append(rows, row)
	}

	table := report.Table([]report.Column{
		{Title: "File", Width: 30},
		{Title: "Rows", Width: 6, Right: true},
		{Title: "Inserted", Width: 9, Right: true},
		{Title: "Dups", Width: 6, Right: true},
		{Title: "Status", Width: 40},
	}, rows)

	t := r.Totals()
	summary := fmt.Sprintf("%d files (%d failed), %d rows", t.Files, t.Failed, t.Rows)
	if committed {
		summary += fmt.Sprintf(", %d inserted, %d invalid, %d duplicates", t.Inserted, t.SkippedInvalid, t.SkippedDuplicates)
	} else {
		summary += ", preview only"
	}
	return table + "\n\n" + report.BoldStyle.Render(summary) + "\n" +
		report.SubtleStyle.Render(fmt.Sprintf("Took %s", r.Duration.Round(time.Millisecond)))
}
