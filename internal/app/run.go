package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shpitdev/cast-image-enricher/internal/enrich"
	"github.com/shpitdev/cast-image-enricher/internal/pipeline"
	"github.com/shpitdev/cast-image-enricher/pkg/pipeline/core"
	localio "github.com/shpitdev/cast-image-enricher/pkg/pipeline/io/local"
	"github.com/shpitdev/cast-image-enricher/pkg/pipeline/redact"
)

// Params names the files and column for one run.
type Params struct {
	InputPath  string
	OutputPath string
	Column     string
	// Sheet selects the workbook sheet; empty means the first one.
	Sheet   string
	Options pipeline.Options
}

// Summary counts lookup outcomes for one run.
type Summary struct {
	RunID    string
	Total    int
	Found    int
	NotFound int
	Failed   int
	Duration time.Duration
}

// RunLocal reads the cast column from a local workbook or CSV and writes the
// JSON document to p.OutputPath.
func RunLocal(ctx context.Context, p Params, enricher enrich.Enricher, logger *zap.Logger) (Summary, error) {
	return Run(
		ctx,
		localio.ColumnReader{Path: p.InputPath, Column: p.Column, Sheet: p.Sheet},
		localio.JSONFile[pipeline.Record]{Path: p.OutputPath},
		p.Options,
		enricher,
		logger,
	)
}

// Run drives one pipeline: load cells, extract names, resolve every name, store
// the records.
//
// Lookup failures are logged and become null image URLs; only input, output and
// context errors fail the run. Nothing is stored if the run fails earlier.
func Run(
	ctx context.Context,
	in core.InputAdapter[string],
	out core.OutputAdapter[pipeline.Record],
	opts pipeline.Options,
	enricher enrich.Enricher,
	logger *zap.Logger,
) (Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String("run", runID))
	runStart := time.Now()

	logger.Info("pipeline start",
		zap.Int("workers", opts.Workers),
		zap.Duration("requestTimeout", opts.RequestTimeout),
		zap.Float64("rateLimitRPS", opts.RateLimitRPS),
		zap.Bool("dedupe", opts.Dedupe),
	)

	readStart := time.Now()
	cells, err := in.Load(ctx)
	if err != nil {
		return Summary{RunID: runID}, fmt.Errorf("load input: %w", err)
	}
	names := pipeline.ExtractNames(cells)
	logger.Info("loaded input",
		zap.Int("rows", len(cells)),
		zap.Int("names", len(names)),
		zap.Duration("duration", time.Since(readStart).Round(time.Millisecond)),
	)

	traced := newTracedEnricher(enricher, logger)
	completed := 0
	lookups, err := pipeline.ResolveNames(ctx, names, traced, opts, func(pipeline.Lookup) error {
		completed++
		if completed%100 == 0 {
			logger.Info("lookup progress", zap.Int("completed", completed))
		}
		return nil
	})
	if err != nil {
		return Summary{RunID: runID}, err
	}

	rows := pipeline.Records(lookups)
	if err := out.Store(ctx, rows); err != nil {
		return Summary{RunID: runID}, fmt.Errorf("write output: %w", err)
	}

	summary := summarize(lookups)
	summary.RunID = runID
	summary.Duration = time.Since(runStart).Round(time.Millisecond)
	logger.Info("pipeline complete",
		zap.Int("total", summary.Total),
		zap.Int("found", summary.Found),
		zap.Int("notFound", summary.NotFound),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func summarize(lookups []pipeline.Lookup) Summary {
	s := Summary{Total: len(lookups)}
	for _, l := range lookups {
		switch {
		case l.Err != nil || l.Result.Status == enrich.StatusError:
			s.Failed++
		case l.Result.Found():
			s.Found++
		default:
			s.NotFound++
		}
	}
	return s
}

// tracedEnricher logs each dispatched name and each caught failure.
type tracedEnricher struct {
	next   enrich.Enricher
	logger *zap.Logger

	mu       sync.Mutex
	attempts map[string]int
}

func newTracedEnricher(next enrich.Enricher, logger *zap.Logger) *tracedEnricher {
	return &tracedEnricher{
		next:     next,
		logger:   logger,
		attempts: make(map[string]int),
	}
}

func (t *tracedEnricher) Lookup(ctx context.Context, name string) (enrich.Result, error) {
	name = strings.TrimSpace(name)
	dispatch := t.nextDispatch(name)

	deadlineIn := "none"
	if d, ok := ctx.Deadline(); ok {
		deadlineIn = time.Until(d).Round(time.Millisecond).String()
	}
	t.logger.Info("lookup dispatched",
		zap.String("name", name),
		zap.Int("dispatch", dispatch),
		zap.String("deadlineIn", deadlineIn),
	)

	start := time.Now()
	out, err := t.next.Lookup(ctx, name)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		t.logger.Warn("lookup failed",
			zap.String("name", name),
			zap.Duration("duration", elapsed),
			zap.String("error", redact.Secrets(err.Error())),
		)
		return out, err
	}

	t.logger.Debug("lookup resolved",
		zap.String("name", name),
		zap.String("status", string(out.Status)),
		zap.String("detail", out.Detail),
		zap.String("imageURL", out.ImageURL),
		zap.Duration("duration", elapsed),
	)
	return out, nil
}

// nextDispatch counts how often a name has been sent; duplicates in the input
// show up as dispatch > 1 unless dedupe is on.
func (t *tracedEnricher) nextDispatch(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts[name]++
	return t.attempts[name]
}
