// Package config loads the catalog service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	DeleteLast  = "last"
	DeleteMatch = "match"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Store          string `env:"STORE" envDefault:"memory"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	SeedFile       string `env:"SEED_FILE"`

	MemoryDeleteMode string `env:"MEMORY_DELETE_MODE" envDefault:"last"`
	NotFoundStatus   int    `env:"NOT_FOUND_STATUS" envDefault:"200"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"false"`
	MetricsToken   string `env:"METRICS_TOKEN"`

	WriteRateLimit  int           `env:"WRITE_RATE_LIMIT" envDefault:"0"`
	WriteRateWindow time.Duration `env:"WRITE_RATE_WINDOW" envDefault:"1m"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.Store {
	case StoreMemory:
	case StorePostgres, StoreSQLite:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for STORE=%s", c.Store))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE %q", c.Store))
	}

	if c.MemoryDeleteMode != DeleteLast && c.MemoryDeleteMode != DeleteMatch {
		errs = append(errs, fmt.Errorf("unknown MEMORY_DELETE_MODE %q", c.MemoryDeleteMode))
	}
	// Not-found replies carry a JSON body, so only statuses that allow one.
	if c.NotFoundStatus != http.StatusOK && (c.NotFoundStatus < 400 || c.NotFoundStatus > 499) {
		errs = append(errs, fmt.Errorf("NOT_FOUND_STATUS %d must be 200 or a 4xx status", c.NotFoundStatus))
	}
	if c.DBMaxOpenConns < 1 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be positive"))
	}
	if c.WriteRateLimit < 0 {
		errs = append(errs, errors.New("WRITE_RATE_LIMIT must not be negative"))
	}
	if c.WriteRateLimit > 0 && c.WriteRateWindow <= 0 {
		errs = append(errs, errors.New("WRITE_RATE_WINDOW must be positive"))
	}
	if c.MetricsEnabled && c.MetricsToken == "" {
		errs = append(errs, errors.New("METRICS_TOKEN is required when METRICS_ENABLED"))
	}

	return errors.Join(errs...)
}
