package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shpitdev/cast-image-enricher/internal/app"
	"github.com/shpitdev/cast-image-enricher/internal/config"
	"github.com/shpitdev/cast-image-enricher/internal/enrich/tmdbimage"
	"github.com/shpitdev/cast-image-enricher/internal/logging"
	"github.com/shpitdev/cast-image-enricher/internal/pipeline"
	"github.com/shpitdev/cast-image-enricher/internal/tmdb"
	"github.com/shpitdev/cast-image-enricher/internal/version"
)

type rootFlags struct {
	input   string
	output  string
	column  string
	sheet   string
	envFile string
	config  string

	workers        int
	requestTimeout time.Duration
	rateLimitRPS   float64
	dedupe         bool
	logLevel       string
	logFormat      string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var flags rootFlags
	defaults := config.Default()

	rootCmd := &cobra.Command{
		Use:   "castimages",
		Short: "Attach TMDB profile image URLs to a spreadsheet of cast names",
		Long: `castimages reads one column of cast names from an .xlsx or .csv file,
splits each cell on commas, looks every name up with the TMDB person search
and writes [{"name", "image_url"}] to a JSON file.

Every comma-separated piece becomes one output entry, so empty cells and
pieces such as "A,,B" produce {"name": "", "image_url": null} entries.

The API key is read from TMDB_API_KEY (or the legacy variable "api"), either
from the environment or from the --env-file. Flags override the YAML config,
which is overridden by the environment; flag defaults shown below are the
built-in values.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnrich(cmd, flags, stdout)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	f := rootCmd.Flags()
	f.StringVarP(&flags.input, "input", "i", "cast.xlsx", "Input spreadsheet (.xlsx or .csv)")
	f.StringVarP(&flags.output, "output", "o", "cast.json", "Output JSON file (overwritten)")
	f.StringVar(&flags.column, "column", "cast", "Header of the column holding comma-separated names")
	f.StringVar(&flags.sheet, "sheet", "", "Workbook sheet (default: first sheet)")
	f.StringVar(&flags.envFile, "env-file", ".env", "Dotenv file; a missing file is ignored")
	f.StringVarP(&flags.config, "config", "c", "", "YAML configuration file")
	f.IntVar(&flags.workers, "workers", defaults.Pipeline.Workers, "Concurrent lookups (default from env/config: WORKERS)")
	f.DurationVar(&flags.requestTimeout, "request-timeout", defaults.Pipeline.RequestTimeout, "Per-lookup timeout (default from env/config: REQUEST_TIMEOUT)")
	f.Float64Var(&flags.rateLimitRPS, "rate-limit-rps", defaults.Pipeline.RateLimitRPS, "Global request rate limit, 0 disables (default from env/config: RATE_LIMIT_RPS)")
	f.BoolVar(&flags.dedupe, "dedupe", defaults.Pipeline.Dedupe, "Look up repeated names once (default from env/config: DEDUPE)")
	f.StringVar(&flags.logLevel, "log-level", defaults.Log.Level, "debug, info, warn or error (default from env/config: LOG_LEVEL)")
	f.StringVar(&flags.logFormat, "log-format", defaults.Log.Format, "console or json (default from env/config: LOG_FORMAT)")

	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the castimages version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Current)
			return err
		},
	}
}

// runEnrich logs to stdout next to the summary table; stderr only carries the
// final error from run.
func runEnrich(cmd *cobra.Command, flags rootFlags, stdout io.Writer) error {
	cfg, err := config.Load(config.LoadOptions{EnvFile: flags.envFile, ConfigFile: flags.config})
	if err != nil {
		return &configError{err: err}
	}
	applyFlagOverrides(cmd, flags, &cfg)
	if err := cfg.Validate(); err != nil {
		return &configError{err: err}
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: stdout})
	if err != nil {
		return &configError{err: err}
	}
	defer func() { _ = logger.Sync() }()

	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		return &configError{err: err}
	}
	enricher, err := tmdbimage.New(client, tmdbimage.Config{ImageBaseURL: cfg.TMDB.ImageBaseURL})
	if err != nil {
		return &configError{err: err}
	}

	logger.Debug("configuration loaded",
		zap.String("input", flags.input),
		zap.String("output", flags.output),
		zap.String("column", flags.column),
		zap.String("tmdbBaseURL", cfg.TMDB.BaseURL),
	)

	summary, err := app.RunLocal(cmd.Context(), app.Params{
		InputPath:  flags.input,
		OutputPath: flags.output,
		Column:     flags.column,
		Sheet:      flags.sheet,
		Options: pipeline.Options{
			Workers:        cfg.Pipeline.Workers,
			RequestTimeout: cfg.Pipeline.RequestTimeout,
			RateLimitRPS:   cfg.Pipeline.RateLimitRPS,
			Dedupe:         cfg.Pipeline.Dedupe,
		},
	}, enricher, logger)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdout, renderSummary(flags.output, summary))
	return err
}

// applyFlagOverrides copies explicitly set flags over the loaded configuration.
func applyFlagOverrides(cmd *cobra.Command, flags rootFlags, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("workers") {
		cfg.Pipeline.Workers = flags.workers
	}
	if f.Changed("request-timeout") {
		cfg.Pipeline.RequestTimeout = flags.requestTimeout
	}
	if f.Changed("rate-limit-rps") {
		cfg.Pipeline.RateLimitRPS = flags.rateLimitRPS
	}
	if f.Changed("dedupe") {
		cfg.Pipeline.Dedupe = flags.dedupe
	}
	if f.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
}
