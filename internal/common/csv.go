// Package common provides the CSV export of stored transactions.
package common

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fjacquet/expense-import/internal/currencyutils"
	"fjacquet/expense-import/internal/fileutils"
	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"

	"github.com/gocarina/gocsv"
)

// ExportRow is the CSV layout of one exported transaction.
type ExportRow struct {
	ID          int64  `csv:"ID"`
	Date        string `csv:"Date"`
	Amount      string `csv:"Amount"`
	Description string `csv:"Description"`
	Vendor      string `csv:"Vendor"`
	Category    string `csv:"Category"`
	Group       string `csv:"Group"`
	IsTransfer  bool   `csv:"IsTransfer"`
	IsPersonal  bool   `csv:"IsPersonal"`
	Confidence  string `csv:"Confidence"`
	Source      string `csv:"Source"`
	Tags        string `csv:"Tags"`
}

// NewExportRow flattens a transaction. A missing confidence is left blank.
func NewExportRow(t models.Transaction) ExportRow {
	row := ExportRow{
		ID:          t.ID,
		Date:        t.DateString(),
		Amount:      currencyutils.FormatAmount(t.Amount),
		Description: t.Description,
		Vendor:      t.Vendor,
		Category:    t.Category,
		Group:       models.GroupOf(t.Category),
		IsTransfer:  t.IsTransfer,
		IsPersonal:  t.IsPersonal,
		Source:      string(t.Source),
		Tags:        strings.Join(t.Tags, "|"),
	}
	if t.Confidence != nil {
		row.Confidence = strconv.Itoa(*t.Confidence)
	}
	return row
}

// WriteTransactionsCSV writes transactions with a header row to w.
func WriteTransactionsCSV(w io.Writer, transactions []models.Transaction, delimiter rune) error {
	rows := make([]ExportRow, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, NewExportRow(t))
	}

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// ExportTransactionsToCSV writes transactions to csvFile, creating parent
// directories as needed.
func ExportTransactionsToCSV(transactions []models.Transaction, csvFile string, delimiter rune, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Discard()
	}
	log := logger.WithFields(logging.F(logging.FieldOutputFile, csvFile), logging.F(logging.FieldCount, len(transactions)))

	file, err := fileutils.CreateFile(csvFile)
	if err != nil {
		log.WithError(err).Error("Failed to create CSV file")
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := WriteTransactionsCSV(file, transactions, delimiter); err != nil {
		log.WithError(err).Error("Failed to marshal transactions to CSV")
		return err
	}

	log.Info("Successfully wrote transactions to CSV file")
	return nil
}
