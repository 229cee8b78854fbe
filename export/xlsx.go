package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes one worksheet per table. Numeric cells stay numeric.
func WriteXLSX(w io.Writer, doc Document) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("xlsx: close: %w", cerr)
		}
	}()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       doc.Title,
		Subject:     doc.Filter,
		Identifier:  doc.ID,
		Creator:     "agency-reports",
		Created:     doc.GeneratedAt.UTC().Format(time.RFC3339),
		Description: "Filters: " + doc.Filter,
	}); err != nil {
		return fmt.Errorf("xlsx: doc props: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: style: %w", err)
	}

	const defaultSheet = "Sheet1"
	for i, t := range doc.Tables {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return fmt.Errorf("xlsx: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("xlsx: new sheet %s: %w", t.Name, err)
		}
		if err := writeSheet(f, t, bold); err != nil {
			return fmt.Errorf("xlsx: sheet %s: %w", t.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(t.Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Name, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, row := range t.Rows {
		values := make([]any, len(row))
		for i, c := range row {
			values[i] = c.Value
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &values); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(t.Headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(t.Name, "A", lastCol, 16)
}
