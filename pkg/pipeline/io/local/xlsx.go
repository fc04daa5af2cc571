package local

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadColumnXLSX reads one sheet of a workbook and returns the text values of
// the named column. An empty sheet name selects the first sheet.
//
// Cells are returned as excelize formats them, so numbers and dates arrive as
// their displayed text. Missing trailing cells yield "".
func ReadColumnXLSX(r io.Reader, sheet, column string) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read header: sheet %q is empty", sheet)
	}
	idx, err := columnIndex(rows[0], column)
	if err != nil {
		return nil, err
	}

	cells := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells = append(cells, cellAt(row, idx))
	}
	return cells, nil
}
