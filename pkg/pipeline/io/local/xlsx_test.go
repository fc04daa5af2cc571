package local_test

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/shpitdev/cast-image-enricher/pkg/pipeline/io/local"
	"github.com/xuri/excelize/v2"
)

func newWorkbook(t *testing.T, sheet string, rows [][]any) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	return f
}

func TestReadColumnXLSX(t *testing.T) {
	f := newWorkbook(t, "Sheet1", [][]any{
		{"title", "cast"},
		{"Amélie", "Audrey Tautou, Mathieu Kassovitz"},
		{"Untitled"},
		{"Numbers", 42},
	})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	got, err := local.ReadColumnXLSX(bytes.NewReader(buf.Bytes()), "", "Cast")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Audrey Tautou, Mathieu Kassovitz", "", "42"}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected cells: %#v", got)
	}
}

func TestReadColumnXLSX_NamedSheet(t *testing.T) {
	f := newWorkbook(t, "Series", [][]any{
		{"cast"},
		{"Bryan Cranston"},
	})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	got, err := local.ReadColumnXLSX(bytes.NewReader(buf.Bytes()), "Series", "cast")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []string{"Bryan Cranston"}) {
		t.Fatalf("unexpected cells: %#v", got)
	}

	if _, err := local.ReadColumnXLSX(bytes.NewReader(buf.Bytes()), "Missing", "cast"); err == nil {
		t.Fatal("expected error for unknown sheet")
	}
}

func TestReadColumnXLSX_MissingColumn(t *testing.T) {
	f := newWorkbook(t, "Sheet1", [][]any{{"director"}, {"Nolan"}})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	if _, err := local.ReadColumnXLSX(bytes.NewReader(buf.Bytes()), "", "cast"); err == nil {
		t.Fatal("expected missing column error")
	}
}

func TestColumnReader_DetectsFormat(t *testing.T) {
	dir := t.TempDir()

	xlsxPath := filepath.Join(dir, "cast.xlsx")
	f := newWorkbook(t, "Sheet1", [][]any{{"cast"}, {"Tom Hanks"}})
	if err := f.SaveAs(xlsxPath); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	csvPath := filepath.Join(dir, "cast.csv")
	writeFile(t, csvPath, "cast\nMeryl Streep\n")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "xlsx", path: xlsxPath, want: "Tom Hanks"},
		{name: "csv", path: csvPath, want: "Meryl Streep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := local.ColumnReader{Path: tt.path, Column: "cast"}.Load(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != 1 || got[0] != tt.want {
				t.Fatalf("unexpected cells: %#v", got)
			}
		})
	}

	if _, err := (local.ColumnReader{Path: filepath.Join(dir, "missing.xlsx"), Column: "cast"}).Load(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
