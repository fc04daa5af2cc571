package tmdbimage

import (
	"context"
	"errors"
	"strings"

	"github.com/shpitdev/cast-image-enricher/internal/enrich"
	"github.com/shpitdev/cast-image-enricher/internal/tmdb"
)

type Config struct {
	// ImageBaseURL is prepended verbatim to profile_path.
	ImageBaseURL string
}

// Enricher resolves names through TMDB person search. The first result wins.
type Enricher struct {
	searcher     tmdb.PersonSearcher
	imageBaseURL string
}

var _ enrich.Enricher = (*Enricher)(nil)

func New(searcher tmdb.PersonSearcher, cfg Config) (*Enricher, error) {
	if searcher == nil {
		return nil, errors.New("tmdb searcher is required")
	}
	base := strings.TrimSpace(cfg.ImageBaseURL)
	if base == "" {
		base = tmdb.DefaultImageBaseURL
	}
	return &Enricher{searcher: searcher, imageBaseURL: base}, nil
}

func (e *Enricher) Lookup(ctx context.Context, name string) (enrich.Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return enrich.Result{Status: enrich.StatusNotFound, Detail: "empty name"}, nil
	}

	resp, err := e.searcher.SearchPerson(ctx, name)
	if err != nil {
		return enrich.Result{Status: enrich.StatusError, Detail: "search failed"}, err
	}
	if resp == nil || len(resp.Results) == 0 {
		return enrich.Result{Status: enrich.StatusNotFound, Detail: "no results"}, nil
	}

	// TODO: prefer an exact (case-folded) name match among results before falling back to the first.
	profile := resp.Results[0].ProfilePath
	if profile == nil || *profile == "" {
		return enrich.Result{Status: enrich.StatusNotFound, Detail: "no profile image"}, nil
	}
	return enrich.Result{
		Status:   enrich.StatusFound,
		ImageURL: e.imageBaseURL + *profile,
	}, nil
}
