package local_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shpitdev/cast-image-enricher/pkg/pipeline/io/local"
)

type entry struct {
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url"`
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWriteJSON(t *testing.T) {
	url := "https://image.tmdb.org/t/p/w500/abc.jpg"
	var buf bytes.Buffer
	err := local.WriteJSON(&buf, []entry{
		{Name: "Amélie Poulain & co", ImageURL: &url},
		{Name: "渡辺謙"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	want := `[
    {
        "name": "Amélie Poulain & co",
        "image_url": "https://image.tmdb.org/t/p/w500/abc.jpg"
    },
    {
        "name": "渡辺謙",
        "image_url": null
    }
]
`
	if out != want {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestWriteJSON_NilIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	if err := local.WriteJSON[entry](&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Fatalf("expected [], got %q", got)
	}
}

func TestJSONFile_OverwritesAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cast.json")
	writeFile(t, path, strings.Repeat("stale content ", 100))

	url := "https://image.tmdb.org/t/p/w500/x.jpg"
	rows := []entry{{Name: "Zoë Kravitz", ImageURL: &url}, {Name: ""}}
	if err := (local.JSONFile[entry]{Path: path}).Store(context.Background(), rows); err != nil {
		t.Fatalf("store: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var got []entry
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("parse output: %v\n%s", err, b)
	}
	if len(got) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(got))
	}
	if got[0].Name != "Zoë Kravitz" || got[0].ImageURL == nil || *got[0].ImageURL != url {
		t.Fatalf("unexpected row[0]: %#v", got[0])
	}
	if got[1].Name != "" || got[1].ImageURL != nil {
		t.Fatalf("unexpected row[1]: %#v", got[1])
	}
}
