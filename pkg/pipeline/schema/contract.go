package schema

import (
	"path/filepath"
	"strings"
)

// InputFormat identifies how a tabular input file is decoded.
type InputFormat string

const (
	InputFormatXLSX InputFormat = "xlsx"
	InputFormatCSV  InputFormat = "csv"
)

// NormalizeFormat resolves an explicit format override, falling back to the file
// extension. Anything that is not recognisably CSV is read as a workbook.
func NormalizeFormat(raw string, path string) InputFormat {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		s = strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(path))), ".")
	}
	switch s {
	case "csv", "text/csv":
		return InputFormatCSV
	default:
		return InputFormatXLSX
	}
}
