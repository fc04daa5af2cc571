package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/shpitdev/cast-image-enricher/internal/tmdb"
)

// ErrMissingAPIKey is returned by Validate when no TMDB key was configured.
var ErrMissingAPIKey = errors.New("tmdb api key not found: set TMDB_API_KEY (or api) in the environment or .env file")

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	ImageBaseURL string `yaml:"image_base_url"`
	Language     string `yaml:"language"`
}

// Pipeline controls lookup concurrency.
type Pipeline struct {
	Workers        int           `yaml:"workers"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	Dedupe         bool          `yaml:"dedupe"`
}

// Log selects logger level and encoding.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is built once at startup and passed to every component.
type Config struct {
	TMDB     TMDB     `yaml:"tmdb"`
	Pipeline Pipeline `yaml:"pipeline"`
	Log      Log      `yaml:"log"`
}

// LoadOptions points Load at optional files.
type LoadOptions struct {
	// EnvFile is a dotenv file; a missing file is not an error.
	EnvFile string
	// ConfigFile is a YAML file; when set it must exist.
	ConfigFile string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TMDB: TMDB{
			BaseURL:      tmdb.DefaultBaseURL,
			ImageBaseURL: tmdb.DefaultImageBaseURL,
		},
		Pipeline: Pipeline{
			Workers:        10,
			RequestTimeout: 30 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load layers defaults, the YAML file, the dotenv file and the process
// environment, in that order. Variables already present in the process
// environment are never replaced by the dotenv file.
//
// Load does not require an API key; call Validate before touching the network.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(opts.ConfigFile); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config YAML: %w", err)
		}
	}

	if path := strings.TrimSpace(opts.EnvFile); path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

// Validate reports configuration that makes a run impossible.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TMDB.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("workers must not be negative (got %d)", c.Pipeline.Workers)
	}
	if c.Pipeline.RateLimitRPS < 0 {
		return fmt.Errorf("rate_limit_rps must not be negative (got %g)", c.Pipeline.RateLimitRPS)
	}
	return nil
}

func (c *Config) normalize() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = tmdb.DefaultBaseURL
	}
	c.TMDB.ImageBaseURL = strings.TrimSpace(c.TMDB.ImageBaseURL)
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = tmdb.DefaultImageBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

func applyEnv(cfg *Config) error {
	if v := firstEnv("TMDB_API_KEY", "api"); v != "" {
		cfg.TMDB.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("TMDB_BASE_URL")); v != "" {
		cfg.TMDB.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("TMDB_IMAGE_BASE_URL")); v != "" {
		cfg.TMDB.ImageBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("TMDB_LANGUAGE")); v != "" {
		cfg.TMDB.Language = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		cfg.Log.Format = v
	}

	var err error
	if cfg.Pipeline.Workers, err = envInt("WORKERS", cfg.Pipeline.Workers); err != nil {
		return err
	}
	if cfg.Pipeline.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", cfg.Pipeline.RequestTimeout); err != nil {
		return err
	}
	if cfg.Pipeline.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", cfg.Pipeline.RateLimitRPS); err != nil {
		return err
	}
	if cfg.Pipeline.Dedupe, err = envBool("DEDUPE", cfg.Pipeline.Dedupe); err != nil {
		return err
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envBool(varName string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
