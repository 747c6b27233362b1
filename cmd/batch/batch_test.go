package batch_test

import (
	"errors"
	"testing"
	"time"

	"fjacquet/expense-import/cmd/batch"
	batchimport "fjacquet/expense-import/internal/batch"
	"fjacquet/expense-import/internal/importer"
	"fjacquet/expense-import/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchCommand_CommandMetadata(t *testing.T) {
	assert.Equal(t, "batch", batch.Cmd.Use)
	assert.Contains(t, batch.Cmd.Short, "directory")
	assert.NotNil(t, batch.Cmd.RunE)
	assert.Contains(t, batch.Cmd.Long, "Example")
}

func TestBatchCommand_Flags(t *testing.T) {
	dir := batch.Cmd.Flags().Lookup("input-dir")
	require.NotNil(t, dir)
	assert.Equal(t, "d", dir.Shorthand)

	commit := batch.Cmd.Flags().Lookup("commit")
	require.NotNil(t, commit)
	assert.Equal(t, "false", commit.DefValue)
}

func TestRenderReport(t *testing.T) {
	r := &batchimport.Report{
		Duration: 1500 * time.Millisecond,
		Files: []batchimport.FileResult{
			{
				Path:    "statements/a.csv",
				Preview: &importer.Preview{Rows: make([]importer.PreviewRow, 3)},
				Commit: &importer.CommitResult{
					Transactions:      make([]models.Transaction, 2),
					SkippedDuplicates: 1,
				},
			},
			{Path: "statements/b.csv", Err: errors.New("invalid CSV")},
		},
	}

	out := batch.RenderReport(r, true)
	assert.Contains(t, out, "a.csv")
	assert.Contains(t, out, "invalid CSV")
	assert.Contains(t, out, "2 files (1 failed), 3 rows, 2 inserted, 0 invalid, 1 duplicates")
	assert.Contains(t, out, "Took 1.5s")

	preview := batch.RenderReport(&batchimport.Report{}, false)
	assert.Contains(t, preview, "preview only")
}
