// Package config loads and validates vlrscrape configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mshayan3/vlrscrape/internal/collector"
	"github.com/mshayan3/vlrscrape/internal/fetch"
	"github.com/mshayan3/vlrscrape/internal/identity"
	"github.com/mshayan3/vlrscrape/internal/logging"
)

// DefaultUserAgent is a desktop browser string; vlr.gg serves the full match pages to it.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config captures every knob loaded via Viper.
type Config struct {
	Logging  logging.Config `mapstructure:"logging"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Identity IdentityConfig `mapstructure:"identity"`
	Store    StoreConfig    `mapstructure:"store"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// FetchConfig controls the shared HTTP gateway.
type FetchConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	UserAgent        string        `mapstructure:"user_agent"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinInterval      time.Duration `mapstructure:"min_interval"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff"`
}

// CrawlConfig controls what gets crawled and where artifacts land.
type CrawlConfig struct {
	OutputDir   string   `mapstructure:"output_dir"`
	EventsPath  string   `mapstructure:"events_path"`
	StartPage   int      `mapstructure:"start_page"`
	EndPage     int      `mapstructure:"end_page"`
	Resume      bool     `mapstructure:"resume"`
	Concurrency int      `mapstructure:"concurrency"`
	Skip        []string `mapstructure:"skip"`
}

// IngestConfig controls the loader.
type IngestConfig struct {
	Root    string      `mapstructure:"root"`
	Workers int         `mapstructure:"workers"`
	Event   EventConfig `mapstructure:"event"`
}

// EventConfig is the event assigned to match folders without an event manifest.
type EventConfig struct {
	Name string `mapstructure:"name"`
	Year int    `mapstructure:"year"`
}

// IdentityConfig adds team aliases after the built-in ones.
type IdentityConfig struct {
	Aliases []identity.Alias `mapstructure:"aliases"`
}

// StoreConfig selects and tunes the relational backend.
type StoreConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load builds a Config from defaults, an optional file and VLR_* environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VLR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("fetch.base_url", "https://www.vlr.gg")
	v.SetDefault("fetch.user_agent", DefaultUserAgent)
	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.min_interval", 200*time.Millisecond)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.retry_delay", time.Second)
	v.SetDefault("fetch.rate_limit_backoff", 2*time.Second)
	v.SetDefault("crawl.output_dir", "VCT Events")
	v.SetDefault("crawl.events_path", "/events/?tier=60&region=all")
	v.SetDefault("crawl.start_page", 1)
	v.SetDefault("crawl.end_page", 5)
	v.SetDefault("crawl.resume", true)
	v.SetDefault("crawl.concurrency", 1)
	v.SetDefault("crawl.skip", []string{})
	v.SetDefault("ingest.root", "VCT Events")
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.event.name", "")
	v.SetDefault("ingest.event.year", 0)
	v.SetDefault("identity.aliases", []map[string]string{})
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.dsn", "file:vlr.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("metrics.addr", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Fetch.BaseURL); err != nil {
		return fmt.Errorf("fetch.base_url must be an absolute URL: %w", err)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	if c.Fetch.MinInterval < 0 {
		return fmt.Errorf("fetch.min_interval must be >= 0")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be > 0")
	}
	if c.Crawl.StartPage <= 0 || c.Crawl.EndPage < c.Crawl.StartPage {
		return fmt.Errorf("crawl.start_page and crawl.end_page must form a range starting at 1 or later")
	}
	if c.Crawl.Concurrency <= 0 {
		return fmt.Errorf("crawl.concurrency must be > 0")
	}
	if _, err := collector.ParseSkip(c.Crawl.Skip); err != nil {
		return fmt.Errorf("crawl.skip: %w", err)
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest.workers must be > 0")
	}
	switch c.Store.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Store.Driver)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("store.dsn must be set")
	}
	if c.Store.Driver == DriverPostgres && c.Store.MaxConns <= 0 {
		return fmt.Errorf("store.max_conns must be > 0 for postgres")
	}
	return nil
}

// RetryPolicy converts the fetch retry knobs.
func (c FetchConfig) RetryPolicy() fetch.RetryPolicy {
	return fetch.RetryPolicy{
		MaxAttempts:      c.MaxAttempts,
		Delay:            c.RetryDelay,
		RateLimitBackoff: c.RateLimitBackoff,
	}
}
