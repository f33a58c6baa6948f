// Package config loads service configuration from the environment so main
// stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the service reads from its environment.
type Config struct {
	Addr          string        `env:"SIGHTSIGN_ADDR" envDefault:":8080"`
	DatabaseURL   string        `env:"SIGHTSIGN_DATABASE_URL"`
	RedisURL      string        `env:"SIGHTSIGN_REDIS_URL"`
	JWTSigningKey string        `env:"SIGHTSIGN_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	SweepInterval time.Duration `env:"SIGHTSIGN_SWEEP_INTERVAL" envDefault:"1m"`

	// CutoffTZ is the IANA location in which every site's daily
	// auto-sign-out time is evaluated. One canonical zone per deployment;
	// the stored time-of-day carries no zone of its own.
	CutoffTZ string `env:"SIGHTSIGN_CUTOFF_TZ" envDefault:"UTC"`
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if _, err := time.LoadLocation(cfg.CutoffTZ); err != nil {
		return Config{}, fmt.Errorf("invalid SIGHTSIGN_CUTOFF_TZ %q: %w", cfg.CutoffTZ, err)
	}
	return cfg, nil
}

// CutoffLocation resolves the configured cutoff time zone. Call after
// FromEnv has validated it.
func (c Config) CutoffLocation() *time.Location {
	loc, err := time.LoadLocation(c.CutoffTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}
