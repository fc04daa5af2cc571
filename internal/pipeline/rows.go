package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/shpitdev/cast-image-enricher/internal/enrich"
	"github.com/shpitdev/cast-image-enricher/pkg/pipeline/redact"
	"github.com/shpitdev/cast-image-enricher/pkg/pipeline/worker"
	"golang.org/x/text/unicode/norm"
)

// Record is the stable output schema contract: one JSON object per name.
type Record struct {
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url"`
}

// Lookup is the tagged per-name outcome, kept in extraction order.
type Lookup struct {
	Name   string
	Result enrich.Result
	Err    error
}

type Options struct {
	Workers        int
	RequestTimeout time.Duration
	RateLimitRPS   float64

	// Dedupe looks up NFC-equal names once and fans the result back out.
	Dedupe bool
}

// ExtractNames splits every cell on commas and trims each piece.
//
// Duplicates and empty pieces (from "A,,B" or an empty cell) are kept so the
// output has exactly one entry per token.
func ExtractNames(cells []string) []string {
	var names []string
	for _, cell := range cells {
		for _, piece := range strings.Split(cell, ",") {
			names = append(names, strings.TrimSpace(piece))
		}
	}
	return names
}

// ResolveNames runs the enricher over all names and returns one Lookup per name
// in the same order.
//
// Errors from individual lookups are recorded per-entry and do not fail the run;
// the returned error is only set when ctx is done or onLookup fails.
func ResolveNames(
	ctx context.Context,
	names []string,
	enricher enrich.Enricher,
	opts Options,
	onLookup func(Lookup) error,
) ([]Lookup, error) {
	plan := buildPlan(names, opts.Dedupe)

	var callback func(worker.Result[string, enrich.Result]) error
	if onLookup != nil {
		callback = func(res worker.Result[string, enrich.Result]) error {
			return onLookup(toLookup(res.Input, res.Output, res.Err))
		}
	}

	out, err := worker.ProcessAllWithCallback(ctx, plan.pending, enricher.Lookup, callback, worker.Options{
		Workers:        opts.Workers,
		RequestTimeout: opts.RequestTimeout,
		RateLimitRPS:   opts.RateLimitRPS,
	})
	if err != nil {
		return nil, err
	}

	lookups := make([]Lookup, len(names))
	for i, res := range out {
		l := toLookup(res.Input, res.Output, res.Err)
		for _, idx := range plan.positions[i] {
			l.Name = names[idx]
			lookups[idx] = l
		}
	}
	return lookups, nil
}

// Records converts lookups to output rows. Anything but a found result is null.
func Records(lookups []Lookup) []Record {
	rows := make([]Record, 0, len(lookups))
	for _, l := range lookups {
		row := Record{Name: l.Name}
		if l.Err == nil && l.Result.Found() {
			url := l.Result.ImageURL
			row.ImageURL = &url
		}
		rows = append(rows, row)
	}
	return rows
}

func toLookup(name string, res enrich.Result, err error) Lookup {
	if err != nil {
		res.Status = enrich.StatusError
		res.ImageURL = ""
		res.Detail = redact.Secrets(err.Error())
	}
	return Lookup{Name: name, Result: res, Err: err}
}

// plan maps each dispatched lookup back to the name positions it serves.
type plan struct {
	pending   []string
	positions [][]int
}

func buildPlan(names []string, dedupe bool) plan {
	p := plan{
		pending:   make([]string, 0, len(names)),
		positions: make([][]int, 0, len(names)),
	}
	if !dedupe {
		for i, name := range names {
			p.pending = append(p.pending, name)
			p.positions = append(p.positions, []int{i})
		}
		return p
	}

	seen := make(map[string]int, len(names))
	for i, name := range names {
		key := nameKey(name)
		if at, ok := seen[key]; ok {
			p.positions[at] = append(p.positions[at], i)
			continue
		}
		seen[key] = len(p.pending)
		p.pending = append(p.pending, name)
		p.positions = append(p.positions, []int{i})
	}
	return p
}

func nameKey(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
