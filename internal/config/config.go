package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/salvir1/covid-undercount/internal/domain"
)

// envPrefix namespaces every variable, e.g. UNDERCOUNT_SOURCE_URL.
const envPrefix = "UNDERCOUNT"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds all service settings, populated from environment variables.
type Config struct {
	// SourceURL is fetched when InputPath is unset. The default is the NYT
	// cumulative county dataset, whose headers the decoder understands.
	SourceURL string `envconfig:"SOURCE_URL" default:"https://raw.githubusercontent.com/nytimes/covid-19-data/master/us-counties.csv" validate:"required,url"`

	// InputPath reads cases from a local .csv or .xlsx file instead of the
	// network.
	InputPath string `envconfig:"INPUT_PATH"`

	// CacheDir holds compressed feed payloads; empty disables caching.
	CacheDir    string        `envconfig:"CACHE_DIR" default:"cache"`
	CacheTTL    time.Duration `envconfig:"CACHE_TTL" default:"6h" validate:"min=0"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s" validate:"gt=0"`

	OutputPath string `envconfig:"OUTPUT_PATH" default:"out/undercount_ratios.csv" validate:"required"`

	// VariantsPath names a YAML rule-set file; empty uses the built-in
	// hypotheses (see DefaultVariants).
	VariantsPath string `envconfig:"VARIANTS_PATH"`

	SmoothingWindow int  `envconfig:"SMOOTHING_WINDOW" default:"7" validate:"min=1"`
	PeakCutoff      Date `envconfig:"PEAK_CUTOFF" default:"2020-10-01"`
	RecentCutoff    Date `envconfig:"RECENT_CUTOFF" default:"2021-02-06"`
	RecentSpan      int  `envconfig:"RECENT_SPAN" default:"7" validate:"min=1"`

	Workers int `envconfig:"WORKERS" default:"8" validate:"min=1"`

	// Admin HTTP surface served while the batch runs.
	AdminEnabled bool   `envconfig:"ADMIN_ENABLED" default:"true"`
	HTTPAddr     string `envconfig:"HTTP_ADDR" default:":8080"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
}

// Date is a calendar date in the table format (YYYY-MM-DD).
type Date struct {
	time.Time
}

// Decode implements envconfig.Decoder.
func (d *Date) Decode(value string) error {
	t, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", value, err)
	}
	d.Time = t
	return nil
}

// Load reads configuration from the environment, applying defaults where
// unset, and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate checks field constraints and the relationships between them.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if !c.PeakCutoff.Before(c.RecentCutoff.Time) {
		return fmt.Errorf("PEAK_CUTOFF %s must be before RECENT_CUTOFF %s",
			c.PeakCutoff.Format(domain.DateLayout), c.RecentCutoff.Format(domain.DateLayout))
	}
	return nil
}

// Windows builds the analysis bounds from the configured cutoffs.
func (c *Config) Windows() domain.Windows {
	return domain.Windows{
		PeakBefore:   c.PeakCutoff.Time,
		RecentAfter:  c.PeakCutoff.Time,
		RecentBefore: c.RecentCutoff.Time,
		RecentSpan:   c.RecentSpan,
	}
}

// Variants resolves the recalibration hypotheses: the configured YAML file
// when set, the built-ins otherwise. Every returned rule set is validated.
func (c *Config) Variants() ([]domain.RuleSet, error) {
	if c.VariantsPath == "" {
		return DefaultVariants(), nil
	}
	return LoadVariants(c.VariantsPath)
}
