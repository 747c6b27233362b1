package importcmd_test

import (
	"testing"
	"time"

	"fjacquet/expense-import/cmd/importcmd"
	"fjacquet/expense-import/internal/csvparser"
	"fjacquet/expense-import/internal/importer"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/rowparser"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCommand_Metadata(t *testing.T) {
	assert.Equal(t, "import", importcmd.Cmd.Use)
	assert.Contains(t, importcmd.Cmd.Short, "bank statement CSV")
	assert.NotNil(t, importcmd.Cmd.RunE)
}

func TestImportCommand_Flags(t *testing.T) {
	input := importcmd.Cmd.Flags().Lookup("input")
	require.NotNil(t, input)
	assert.Equal(t, "i", input.Shorthand)

	commit := importcmd.Cmd.Flags().Lookup("commit")
	require.NotNil(t, commit)
	assert.Equal(t, "false", commit.DefValue)

	override := importcmd.Cmd.Flags().Lookup("override")
	require.NotNil(t, override)
	assert.Equal(t, "stringArray", override.Value.Type())

	assert.NotNil(t, importcmd.Cmd.Flags().Lookup("vendor-override"))
	assert.NotNil(t, importcmd.Cmd.Flags().Lookup("include-duplicates"))
}

func TestParseRowOverrides(t *testing.T) {
	got, err := importcmd.ParseRowOverrides([]string{"2=Restaurants", " 5 = Bakery & Coffee "})
	require.NoError(t, err)
	assert.Equal(t, map[int]string{2: "Restaurants", 5: "Bakery & Coffee"}, got)

	tests := []struct {
		name  string
		value string
	}{
		{"missing equals", "2Restaurants"},
		{"empty category", "2="},
		{"not a number", "two=Restaurants"},
		{"zero row", "0=Restaurants"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := importcmd.ParseRowOverrides([]string{tt.value})
			assert.Error(t, err)
		})
	}
}

func TestParseVendorOverrides(t *testing.T) {
	got, err := importcmd.ParseVendorOverrides([]string{"tim hortons=Bakery & Coffee"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"tim hortons": "Bakery & Coffee"}, got)

	_, err = importcmd.ParseVendorOverrides([]string{"=Groceries"})
	assert.Error(t, err)
}

func TestRenderPreview(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	preview := &importer.Preview{
		Filename: "cibc.csv",
		Encoding: "utf-8",
		Format:   csvparser.FormatHeaderless,
		Rows: []importer.PreviewRow{
			{
				RowIndex:         1,
				Draft:            models.Draft{Date: date, Amount: decimal.RequireFromString("-4.50"), Vendor: "Tim Hortons"},
				ProposedCategory: models.CategoryBakeryCoffee,
				Confidence:       models.IntPtr(85),
				Source:           models.SourceKeyword,
			},
			{
				RowIndex:    2,
				Draft:       models.Draft{Date: date, Amount: decimal.RequireFromString("-12.00"), Vendor: "Unknown Shop"},
				Source:      models.SourceImportAuto,
				IsDuplicate: true,
			},
			{RowIndex: 3, SkipReason: rowparser.SkipBadDate},
		},
	}

	out := importcmd.RenderPreview(preview, map[int]string{2: models.CategoryGroceries})
	assert.Contains(t, out, "cibc.csv")
	assert.Contains(t, out, "Tim Hortons")
	assert.Contains(t, out, "-4.50")
	assert.Contains(t, out, models.CategoryGroceries)
	assert.Contains(t, out, "import_override")
	assert.Contains(t, out, "dup")
	assert.Contains(t, out, "skipped: bad_date")
	assert.Contains(t, out, "3 rows: 1 skipped, 1 duplicates, 1 categorized, 0 transfers")
}
