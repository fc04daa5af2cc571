package enrich

import (
	"context"
)

// Status tags why a lookup did or did not produce an image URL.
type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
)

// Result is the enrichment output for a single cast name.
type Result struct {
	Status   Status
	ImageURL string
	// Detail explains a not_found or error status ("no results", "no profile image", ...).
	Detail string
}

// Found reports whether the lookup produced a usable image URL.
func (r Result) Found() bool {
	return r.Status == StatusFound && r.ImageURL != ""
}

// Enricher resolves a single cast name to a profile image.
//
// A no-match is a nil error with a not_found Result; errors are reserved for
// transport and decoding failures.
type Enricher interface {
	Lookup(ctx context.Context, name string) (Result, error)
}
