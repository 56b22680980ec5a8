package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/order-discounts/internal/batch"
)

// Config holds the complete batch configuration, loadable from environment
// variables (DISCOUNT_ prefix), flags, or YAML config files.
type Config struct {
	Input       string `default:"orders.csv" usage:"Input records path, .gz for gzip, - for stdin"`
	Output      string `default:"scored_orders.csv" usage:"Output records path, .gz for gzip, - for stdout"`
	Summary     string `default:"" usage:"Path of the JSON run summary (empty disables it)"`
	AuditLog    string `default:"" usage:"Path of the JSON audit log with per-order rule scores" flag:"audit-log"`
	DatabaseURL string `default:"" usage:"PostgreSQL URL of the optional scored order sink (DISCOUNT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	OnMalformed string `default:"abort" usage:"Malformed record policy: abort or skip" flag:"on-malformed"`
	Workers     int    `default:"1" usage:"Number of goroutines scoring orders"`
	Today       string `default:"" usage:"Reference date YYYY-MM-DD for the expiry rule (default: current date)"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files and flags, then validates it.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "DISCOUNT",
		Files:     []string{"config.yaml", "/etc/discount/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the conventional DATABASE_URL variable to the
// sink URL when no DISCOUNT_-prefixed value is set.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
}

func (c *Config) validate() error {
	if c.Input == "" {
		return errors.New("input path is required")
	}
	if c.Output == "" {
		return errors.New("output path is required")
	}
	switch batch.Policy(c.OnMalformed) {
	case batch.PolicyAbort, batch.PolicySkip:
	default:
		return errors.Errorf("invalid on-malformed policy %q: want abort or skip", c.OnMalformed)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := c.ReferenceDate(time.Now()); err != nil {
		return err
	}
	return nil
}

// ReferenceDate returns the configured reference date, or the calendar date
// of now when none is set.
func (c *Config) ReferenceDate(now time.Time) (time.Time, error) {
	if c.Today == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(time.DateOnly, c.Today)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse reference date %q", c.Today)
	}
	return t, nil
}
