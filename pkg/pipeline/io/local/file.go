package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shpitdev/cast-image-enricher/pkg/pipeline/core"
	"github.com/shpitdev/cast-image-enricher/pkg/pipeline/schema"
)

// ColumnReader loads the text cells of one column from a local workbook or CSV file.
type ColumnReader struct {
	Path   string
	Column string
	// Sheet selects the workbook sheet; empty means the first sheet. Ignored for CSV.
	Sheet string
	// Format overrides extension-based detection ("xlsx" or "csv").
	Format string
}

var _ core.InputAdapter[string] = ColumnReader{}

func (c ColumnReader) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	switch schema.NormalizeFormat(c.Format, c.Path) {
	case schema.InputFormatCSV:
		return ReadColumnCSV(f, c.Column)
	default:
		return ReadColumnXLSX(f, c.Sheet, c.Column)
	}
}

// JSONFile writes rows to a local file as an indented JSON array, replacing any
// existing file.
type JSONFile[T any] struct {
	Path string
}

func (j JSONFile[T]) Store(ctx context.Context, rows []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Encode first so a failed marshal never truncates a previous output.
	var buf bytes.Buffer
	if err := WriteJSON(&buf, rows); err != nil {
		return err
	}

	f, err := os.Create(j.Path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := buf.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", j.Path, err)
	}
	return f.Close()
}

// WriteJSON encodes rows as a JSON array with 4-space indentation. A nil slice is
// written as [] and non-ASCII or HTML characters are emitted literally.
func WriteJSON[T any](w io.Writer, rows []T) error {
	if rows == nil {
		rows = []T{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rows)
}
