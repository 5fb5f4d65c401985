package reporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/normalize"
)

// csvHeader is the fixed column order of the CSV export.
var csvHeader = []string{
	"date", "sourceFile", "amount", "currency", "description", "category", "sourceTag", "id",
}

// WriteCSV writes transactions in the export column order. Credits are
// written as negative amounts so the direction survives the format.
func WriteCSV(w io.Writer, txns []models.Transaction) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, tx := range txns {
		amount := tx.Amount
		if tx.Direction == models.DirectionCredit {
			amount = amount.Neg()
		}
		record := []string{
			tx.Date,
			tx.SourceFile,
			amount.StringFixed(2),
			string(tx.Currency),
			tx.Description,
			tx.Category,
			tx.SourceTag,
			tx.ID,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadCSV reads transactions previously written by WriteCSV.
func ReadCSV(r io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv input is empty")
	}
	if records[0][0] != csvHeader[0] {
		return nil, fmt.Errorf("unexpected csv header: %v", records[0])
	}

	var txns []models.Transaction
	for i, record := range records[1:] {
		amount, ok := normalize.Amount(record[2])
		if !ok {
			return nil, fmt.Errorf("row %d: bad amount %q", i+2, record[2])
		}

		direction := models.DirectionDebit
		if amount.IsNegative() {
			direction = models.DirectionCredit
			amount = amount.Neg()
		}

		txns = append(txns, models.Transaction{
			Date:        record[0],
			SourceFile:  record[1],
			Amount:      amount,
			Currency:    models.Currency(record[3]),
			Description: record[4],
			Category:    record[5],
			SourceTag:   record[6],
			ID:          record[7],
			Direction:   direction,
		})
	}
	return txns, nil
}
