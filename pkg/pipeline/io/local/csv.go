package local

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadColumnCSV reads a CSV file and returns the values from the named column.
//
// Rows shorter than the header yield "" for the column.
func ReadColumnCSV(r io.Reader, column string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header, column)
	if err != nil {
		return nil, err
	}

	var cells []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		cells = append(cells, cellAt(rec, idx))
	}
	return cells, nil
}

func columnIndex(header []string, column string) (int, error) {
	want := strings.TrimSpace(column)
	if want == "" {
		return -1, fmt.Errorf("column name is required")
	}
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), want) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("missing required column %q", want)
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
