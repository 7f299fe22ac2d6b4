// Package config loads runtime settings from LINKCART_* environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"LinkCart/internal/export"
	"LinkCart/internal/kv"
	"LinkCart/internal/links"
)

type Config struct {
	HTTP   HTTPConfig   `envPrefix:"HTTP_"`
	Store  StoreConfig  `envPrefix:"STORE_"`
	Scrape ScrapeConfig `envPrefix:"SCRAPE_"`
	Export ExportConfig `envPrefix:"EXPORT_"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsToken string `env:"METRICS_TOKEN"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR" envDefault:"127.0.0.1:8765"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type StoreConfig struct {
	Backend      string `env:"BACKEND" envDefault:"badger"`
	BadgerDir    string `env:"BADGER_DIR" envDefault:"./linkcart-data"`
	DatabaseURL  string `env:"DATABASE_URL"`
	InsertPolicy string `env:"INSERT_POLICY" envDefault:"append"`
}

type ScrapeConfig struct {
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"10s"`
	RateLimit       int           `env:"RATE_LIMIT" envDefault:"30"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

type ExportConfig struct {
	Schema     string `env:"SCHEMA" envDefault:"full"`
	ClearAfter bool   `env:"CLEAR" envDefault:"true"`
}

const prefix = "LINKCART_"

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: prefix}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := export.ParseSchema(c.Export.Schema); err != nil {
		return err
	}
	switch c.Store.Backend {
	case kv.BackendMemory, kv.BackendBadger:
	case kv.BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("%sSTORE_DATABASE_URL is required for the postgres backend", prefix)
		}
	default:
		return fmt.Errorf("unknown %sSTORE_BACKEND %q", prefix, c.Store.Backend)
	}
	return nil
}

func (c *Config) Policy() (links.Policy, error) {
	return links.ParsePolicy(c.Store.InsertPolicy)
}

func (c *Config) KVOptions() kv.Options {
	return kv.Options{
		Backend:     c.Store.Backend,
		BadgerDir:   c.Store.BadgerDir,
		DatabaseURL: c.Store.DatabaseURL,
	}
}
