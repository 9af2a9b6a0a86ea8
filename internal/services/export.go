package services

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

// ErrImportFormat is returned when an import payload is neither a bare
// transaction array nor an object with a "transactions" array. The whole
// import is rejected; nothing is applied.
var ErrImportFormat = errors.New("unrecognized import format")

// Archive is the interchange document for export and import.
type Archive struct {
	Transactions          []core.Transaction          `json:"transactions"`
	RecurringTransactions []core.RecurringTransaction `json:"recurringTransactions"`
}

// MarshalArchive renders the archive as an indented JSON document.
func MarshalArchive(a Archive) ([]byte, error) {
	if a.Transactions == nil {
		a.Transactions = []core.Transaction{}
	}
	if a.RecurringTransactions == nil {
		a.RecurringTransactions = []core.RecurringTransaction{}
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal archive: %w", err)
	}
	return data, nil
}

// ParseArchive decodes an import payload. Both the full archive document
// and a bare transaction array (no recurring data implied) are accepted.
func ParseArchive(data []byte) (Archive, error) {
	var archive Archive
	if err := json.Unmarshal(data, &archive); err == nil && archive.Transactions != nil {
		return archive, nil
	}

	var bare []core.Transaction
	if err := json.Unmarshal(data, &bare); err == nil && bare != nil {
		return Archive{Transactions: bare}, nil
	}

	return Archive{}, ErrImportFormat
}

// WriteCSV writes the archive's transactions as CSV rows.
func WriteCSV(w io.Writer, transactions []core.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"Date", "Description", "Amount", "Type", "Category", "Payment"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range transactions {
		row := []string{
			t.Date,
			t.Description,
			strconv.FormatFloat(t.Amount, 'f', 2, 64),
			string(t.Type),
			t.Category,
			t.Payment,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// BuildXLSX builds a workbook with one sheet per entity type.
func BuildXLSX(a Archive) (*excelize.File, error) {
	f := excelize.NewFile()

	const txSheet = "Transactions"
	if err := f.SetSheetName("Sheet1", txSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	header := []interface{}{"Date", "Description", "Amount", "Type", "Category", "Payment"}
	if err := f.SetSheetRow(txSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, t := range a.Transactions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		row := []interface{}{t.Date, t.Description, t.Amount, string(t.Type), t.Category, t.Payment}
		if err := f.SetSheetRow(txSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	const recSheet = "Recurring"
	if _, err := f.NewSheet(recSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	recHeader := []interface{}{"Description", "Amount", "Type", "Category", "Payment", "Frequency", "Next Due"}
	if err := f.SetSheetRow(recSheet, "A1", &recHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, rt := range a.RecurringTransactions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		row := []interface{}{rt.Description, rt.Amount, string(rt.Type), rt.Category, rt.Payment, string(rt.Frequency), rt.NextDueDate}
		if err := f.SetSheetRow(recSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	return f, nil
}
