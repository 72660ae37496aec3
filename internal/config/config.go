// Package config loads and validates environment variables at startup.
// Fail-fast: if a variable holds an unusable value, the process exits with an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/nyaruka/phonenumbers"
	"github.com/robfig/cron/v3"
)

// Config holds all runtime configuration for the intake service.
type Config struct {
	Port     string `env:"INTAKE_PORT" envDefault:"8083"`
	GRPCPort string `env:"INTAKE_GRPC_PORT" envDefault:"50053"`

	// Optional. Empty disables event publishing.
	RedisURL string `env:"REDIS_URL"`
	// Optional. When set the catalog is read from PostgreSQL.
	DatabaseURL string `env:"DATABASE_URL"`
	CatalogFile string `env:"INTAKE_CATALOG_FILE"`

	PhoneRegion string        `env:"INTAKE_PHONE_REGION" envDefault:"US"`
	SessionTTL  time.Duration `env:"INTAKE_SESSION_TTL" envDefault:"30m"`
	SweepSpec   string        `env:"INTAKE_SWEEP_SPEC" envDefault:"@every 1m"`
}

// Load reads an optional .env file, then the environment, and returns a
// validated Config.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("godotenv.Load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("env.Parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the env tags cannot express.
func (c *Config) Validate() error {
	for name, port := range map[string]string{"INTAKE_PORT": c.Port, "INTAKE_GRPC_PORT": c.GRPCPort} {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return fmt.Errorf("%s must be a TCP port, got %q", name, port)
		}
	}
	if c.Port == c.GRPCPort {
		return fmt.Errorf("INTAKE_PORT and INTAKE_GRPC_PORT must differ, both are %s", c.Port)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("INTAKE_SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if phonenumbers.GetCountryCodeForRegion(c.PhoneRegion) == 0 {
		return fmt.Errorf("INTAKE_PHONE_REGION %q is not a known region", c.PhoneRegion)
	}
	if _, err := cron.ParseStandard(c.SweepSpec); err != nil {
		return fmt.Errorf("INTAKE_SWEEP_SPEC %q: %w", c.SweepSpec, err)
	}
	return nil
}
