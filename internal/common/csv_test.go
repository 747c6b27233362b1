package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTransactions() []models.Transaction {
	return []models.Transaction{
		{
			ID:          1,
			Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.RequireFromString("-4.5"),
			Description: "TIM HORTONS #123",
			Vendor:      "tim hortons",
			Category:    models.CategoryBakeryCoffee,
			Confidence:  models.IntPtr(75),
			Source:      models.SourceKeyword,
			Tags:        []string{"trip", "work"},
		},
		{
			ID:          2,
			Date:        time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.NewFromInt(500),
			Description: "DEPOSIT, PAYROLL",
			Source:      models.SourceImportAuto,
		},
	}
}

func TestWriteTransactionsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, sampleTransactions(), ','))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Date,Amount,Description,Vendor,Category,Group,IsTransfer,IsPersonal,Confidence,Source,Tags", lines[0])
	assert.Equal(t, "1,2024-03-01,-4.50,TIM HORTONS #123,tim hortons,Bakery & Coffee,Food,false,false,75,keyword,trip|work", lines[1])
	assert.Equal(t, `2,2024-03-02,500.00,"DEPOSIT, PAYROLL",,,,false,false,,import_auto,`, lines[2])
}

func TestWriteTransactionsCSV_Delimiter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, sampleTransactions()[:1], ';'))
	assert.True(t, strings.HasPrefix(buf.String(), "ID;Date;Amount;"))
}

func TestExportTransactionsToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "export.csv")
	logger := logging.NewMockLogger()

	require.NoError(t, ExportTransactionsToCSV(sampleTransactions(), path, ',', logger))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TIM HORTONS #123")
	assert.True(t, logger.HasEntry("INFO", "Successfully wrote transactions to CSV file"))
}
