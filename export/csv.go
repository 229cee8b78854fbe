package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// WriteCSV writes the header block and then one section per table,
// separated by blank lines.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)

	header := [][]string{
		{doc.Title},
		{"Generated", doc.GeneratedAt.Format(time.RFC3339)},
		{"Filters", doc.Filter},
		{"Export ID", doc.ID},
	}
	if err := cw.WriteAll(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, t := range doc.Tables {
		if err := cw.Write([]string{}); err != nil {
			return fmt.Errorf("csv: write separator: %w", err)
		}
		if err := cw.Write([]string{t.Name}); err != nil {
			return fmt.Errorf("csv: write %s title: %w", t.Name, err)
		}
		if err := cw.Write(t.Headers); err != nil {
			return fmt.Errorf("csv: write %s header: %w", t.Name, err)
		}
		for _, row := range t.Rows {
			if err := cw.Write(texts(row)); err != nil {
				return fmt.Errorf("csv: write %s row: %w", t.Name, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func texts(row []Cell) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = c.Text
	}
	return out
}
